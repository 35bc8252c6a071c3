// Copyright 2025 The restsvc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package negotiate implements RFC 7231 proactive content negotiation for
// the Accept, Accept-Language and Content-Type headers.
package negotiate

import (
	"strconv"
	"strings"
)

// spec is one parsed element of an Accept-style header.
type spec struct {
	value   string
	quality float64
}

// shortNames maps convenience names to full media types.
var shortNames = map[string]string{
	"html":    "text/html",
	"json":    "application/json",
	"xml":     "application/xml",
	"text":    "text/plain",
	"txt":     "text/plain",
	"yaml":    "application/yaml",
	"toml":    "application/toml",
	"msgpack": "application/msgpack",
	"proto":   "application/x-protobuf",
	"binary":  "application/octet-stream",
}

// Normalize lower-cases a media type, drops its parameters and expands
// short names such as "json".
func Normalize(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if full, ok := shortNames[mediaType]; ok {
		return full
	}

	return mediaType
}

// parse splits an Accept-style header into specs. Entries with an invalid
// quality keep the default of 1.
func parse(header string) []spec {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var specs []spec
	for part := range strings.SplitSeq(header, ",") {
		fields := strings.Split(part, ";")
		value := strings.TrimSpace(fields[0])
		if value == "" {
			continue
		}

		s := spec{value: strings.ToLower(value), quality: 1}
		for _, param := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(v), `"`), 64); err == nil && q >= 0 && q <= 1 {
				s.quality = q
			}
		}
		specs = append(specs, s)
	}

	return specs
}

// splitMediaType returns the lower-cased type and subtype. A value without a
// slash is treated as "type/*".
func splitMediaType(mediaType string) (string, string) {
	mediaType = Normalize(mediaType)
	if t, sub, ok := strings.Cut(mediaType, "/"); ok {
		return t, sub
	}

	return mediaType, "*"
}

// matchMediaType returns the specificity of a match between an offer and an
// Accept spec: 3 exact, 2 subtype wildcard, 1 full wildcard, 0 no match.
func matchMediaType(offer, accept string) int {
	offerType, offerSub := splitMediaType(offer)
	acceptType, acceptSub := splitMediaType(accept)

	switch {
	case acceptType == "*" && acceptSub == "*":
		return 1
	case acceptType == offerType && acceptSub == "*":
		return 2
	case acceptType == offerType && acceptSub == offerSub:
		return 3
	default:
		return 0
	}
}

// MediaType picks the offer that best satisfies an Accept header.
//
// An empty header accepts anything, so the first offer wins. Offers are
// returned in the form they were given. The empty string means no offer is
// acceptable.
//
// Example:
//
//	// Accept: text/html, application/json;q=0.8
//	negotiate.MediaType(accept, []string{"application/json", "text/html"}) // "text/html"
func MediaType(header string, offers []string) string {
	if len(offers) == 0 {
		return ""
	}
	specs := parse(header)
	if len(specs) == 0 {
		return offers[0]
	}

	best := ""
	bestQuality := 0.0
	bestSpecificity := 0
	for _, offer := range offers {
		// The most specific matching range decides the offer's quality.
		quality, specificity := 0.0, 0
		for _, s := range specs {
			if sp := matchMediaType(offer, s.value); sp > specificity {
				quality, specificity = s.quality, sp
			}
		}
		if quality <= 0 {
			continue
		}
		if quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
			best, bestQuality, bestSpecificity = offer, quality, specificity
		}
	}

	return best
}

// Language picks the offer that best satisfies an Accept-Language header.
//
// Tags compare case-insensitively. A range matches an offer when they are
// equal, or when one is a prefix of the other on a "-" boundary ("en"
// matches "en-US" and the reverse). "*" matches everything. An empty header
// selects the first offer.
func Language(header string, offers []string) string {
	if len(offers) == 0 {
		return ""
	}
	specs := parse(header)
	if len(specs) == 0 {
		return offers[0]
	}

	best := ""
	bestQuality := 0.0
	bestSpecificity := 0
	for _, offer := range offers {
		tag := strings.ToLower(offer)
		quality, specificity := 0.0, 0
		for _, s := range specs {
			if sp := matchLanguage(tag, s.value); sp > specificity {
				quality, specificity = s.quality, sp
			}
		}
		if quality <= 0 {
			continue
		}
		if quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
			best, bestQuality, bestSpecificity = offer, quality, specificity
		}
	}

	return best
}

func matchLanguage(offer, accept string) int {
	switch {
	case accept == offer:
		return 3
	case strings.HasPrefix(offer, accept+"-"), strings.HasPrefix(accept, offer+"-"):
		return 2
	case accept == "*":
		return 1
	default:
		return 0
	}
}

// ContentType reports whether a request Content-Type is covered by one of the
// allowed media types. Allowed entries may use "type/*" or "*/*" wildcards or
// short names.
func ContentType(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if matchMediaType(contentType, a) > 0 {
			return true
		}
	}

	return false
}

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

package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Pattern errors.
var (
	// ErrInvalidPattern is returned for malformed route patterns.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrRegistration wraps failures reported by the host router.
	ErrRegistration = errors.New("route registration failed")
)

// validParamName restricts parameter names to Go identifiers, the common
// subset every supported router accepts.
var validParamName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SegmentKind distinguishes the three kinds of pattern segments.
type SegmentKind uint8

const (
	// Static matches the segment text literally.
	Static SegmentKind = iota
	// Param matches exactly one non-empty path segment.
	Param
	// CatchAll matches the remainder of the path. Only valid as last segment.
	CatchAll
)

// Segment is one slash-separated element of a [Pattern].
type Segment struct {
	Kind SegmentKind
	// Value is the literal text for Static segments and the parameter name
	// otherwise.
	Value string
}

// Pattern is a parsed, normalised route pattern.
// The zero value is the root pattern "/".
type Pattern struct {
	segments []Segment
}

// ParsePattern parses a router-style path pattern.
//
// The path is normalised first: a leading slash is added, runs of slashes are
// collapsed and a trailing slash is dropped. A bare "*" catch-all is named
// "path".
//
// Example:
//
//	p, err := engine.ParsePattern("users//:id/")
//	p.String() // "/users/:id"
func ParsePattern(path string) (Pattern, error) {
	var segs []Segment
	seen := make(map[string]struct{})

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}

		var seg Segment
		switch {
		case strings.HasPrefix(part, ":"):
			seg = Segment{Kind: Param, Value: part[1:]}
		case strings.HasPrefix(part, "*"):
			name := part[1:]
			if name == "" {
				name = "path"
			}
			seg = Segment{Kind: CatchAll, Value: name}
			if hasMore(parts[i+1:]) {
				return Pattern{}, fmt.Errorf("%w: %q: catch-all must be the last segment", ErrInvalidPattern, path)
			}
		default:
			if strings.ContainsAny(part, "{}*:") {
				return Pattern{}, fmt.Errorf("%w: %q: reserved character in segment %q", ErrInvalidPattern, path, part)
			}
			seg = Segment{Kind: Static, Value: part}
		}

		if seg.Kind != Static {
			if !validParamName.MatchString(seg.Value) {
				return Pattern{}, fmt.Errorf("%w: %q: parameter name %q must be an identifier", ErrInvalidPattern, path, seg.Value)
			}
			if _, dup := seen[seg.Value]; dup {
				return Pattern{}, fmt.Errorf("%w: %q: duplicate parameter %q", ErrInvalidPattern, path, seg.Value)
			}
			seen[seg.Value] = struct{}{}
		}

		segs = append(segs, seg)
	}

	return Pattern{segments: segs}, nil
}

// MustParsePattern is like [ParsePattern] but panics on error.
func MustParsePattern(path string) Pattern {
	p, err := ParsePattern(path)
	if err != nil {
		panic(err)
	}

	return p
}

func hasMore(parts []string) bool {
	for _, p := range parts {
		if p != "" {
			return true
		}
	}

	return false
}

// Join appends child to p. A catch-all in p cannot be extended.
func (p Pattern) Join(child Pattern) (Pattern, error) {
	if len(child.segments) == 0 {
		return p, nil
	}
	if n := len(p.segments); n > 0 && p.segments[n-1].Kind == CatchAll {
		return Pattern{}, fmt.Errorf("%w: cannot append %q to catch-all pattern %q", ErrInvalidPattern, child, p)
	}

	segs := make([]Segment, 0, len(p.segments)+len(child.segments))
	segs = append(segs, p.segments...)
	segs = append(segs, child.segments...)

	// Re-parse to run duplicate-parameter checks over the combined pattern.
	return ParsePattern(Pattern{segments: segs}.String())
}

// Segments returns a copy of the pattern segments.
func (p Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)

	return out
}

// Params returns the parameter names in declaration order, including the
// catch-all name.
func (p Pattern) Params() []string {
	var names []string
	for _, s := range p.segments {
		if s.Kind != Static {
			names = append(names, s.Value)
		}
	}

	return names
}

// IsRoot reports whether p is "/".
func (p Pattern) IsRoot() bool {
	return len(p.segments) == 0
}

// String returns the canonical router-style form, e.g. "/users/:id".
func (p Pattern) String() string {
	return p.Render(
		func(name string) string { return ":" + name },
		func(name string) string { return "*" + name },
	)
}

// Shape returns the pattern with parameter names erased. Two patterns with
// the same shape match the same set of paths and therefore conflict.
func (p Pattern) Shape() string {
	return p.Render(
		func(string) string { return ":" },
		func(string) string { return "*" },
	)
}

// Render formats the pattern using the given parameter and catch-all
// renderers. Static segments are emitted verbatim.
func (p Pattern) Render(param, catchAll func(name string) string) string {
	if len(p.segments) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		switch s.Kind {
		case Param:
			b.WriteString(param(s.Value))
		case CatchAll:
			b.WriteString(catchAll(s.Value))
		default:
			b.WriteString(s.Value)
		}
	}

	return b.String()
}

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

package restsvc

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
)

// render writes the endpoint result.
func (s *Server) render(sc *ServiceContext, result any) error {
	if sc.Written() {
		return nil
	}
	if isNil(result) {
		sc.Response.WriteHeader(http.StatusNoContent)
		return nil
	}

	switch v := result.(type) {
	case Responder:
		return v.Respond(sc)
	case string:
		return writeRaw(sc, "text/plain; charset=utf-8", []byte(v))
	case []byte:
		return writeRaw(sc, "application/octet-stream", v)
	case io.Reader:
		if c, ok := v.(io.Closer); ok {
			defer c.Close()
		}
		if sc.Response.Header().Get("Content-Type") == "" {
			sc.Response.Header().Set("Content-Type", "application/octet-stream")
		}
		sc.Response.WriteHeader(sc.route.info.Status)
		if _, err := io.Copy(sc.Response, v); err != nil {
			return fmt.Errorf("stream %s response: %w", reflect.TypeOf(v), err)
		}

		return nil
	default:
		return sc.Write(sc.route.info.Status, v)
	}
}

func writeRaw(sc *ServiceContext, contentType string, body []byte) error {
	h := sc.Response.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
	sc.Response.WriteHeader(sc.route.info.Status)
	_, err := sc.Response.Write(body)

	return err
}

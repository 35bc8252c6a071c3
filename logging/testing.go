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

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Attrs   map[string]any `json:"-"`
}

// NewTestLogger returns a debug-level JSON logger writing to the returned
// buffer.
func NewTestLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return MustNew(WithJSONHandler(), WithOutput(buf), WithLevel(LevelDebug)), buf
}

// ParseEntries decodes the JSON lines in buf.
func ParseEntries(buf *bytes.Buffer) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("decode log line %q: %w", line, err)
		}
		e := Entry{Attrs: raw}
		e.Level, _ = raw["level"].(string)
		e.Message, _ = raw["msg"].(string)
		entries = append(entries, e)
	}

	return entries, scanner.Err()
}

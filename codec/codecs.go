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

package codec

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// ErrNotProtoMessage is returned when the protobuf codec is given a value
// that does not implement proto.Message.
var ErrNotProtoMessage = errors.New("value does not implement proto.Message")

// JSON is the application/json codec.
type JSON struct {
	// DisallowUnknownFields rejects bodies with fields the target lacks.
	DisallowUnknownFields bool
}

// ContentType implements [Codec].
func (JSON) ContentType() string { return "application/json" }

// Encode implements [Codec].
func (JSON) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// Decode implements [Codec].
func (c JSON) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}

	return dec.Decode(v)
}

// XML is the application/xml codec.
type XML struct{}

// ContentType implements [Codec].
func (XML) ContentType() string { return "application/xml" }

// Encode implements [Codec]. The XML declaration header is written first.
func (XML) Encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	return xml.NewEncoder(w).Encode(v)
}

// Decode implements [Codec].
func (XML) Decode(r io.Reader, v any) error {
	return xml.NewDecoder(r).Decode(v)
}

// YAML is the application/yaml codec.
type YAML struct{}

// ContentType implements [Codec].
func (YAML) ContentType() string { return "application/yaml" }

// Encode implements [Codec].
func (YAML) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}

// Decode implements [Codec].
func (YAML) Decode(r io.Reader, v any) error {
	return yaml.NewDecoder(r).Decode(v)
}

// TOML is the application/toml codec. Only values encoding to a TOML table
// (structs and maps) can be written.
type TOML struct{}

// ContentType implements [Codec].
func (TOML) ContentType() string { return "application/toml" }

// Encode implements [Codec].
func (TOML) Encode(w io.Writer, v any) error {
	return toml.NewEncoder(w).Encode(v)
}

// Decode implements [Codec].
func (TOML) Decode(r io.Reader, v any) error {
	_, err := toml.NewDecoder(r).Decode(v)
	return err
}

// MsgPack is the application/msgpack codec. Field names come from json
// struct tags so the same types serve JSON and MessagePack clients.
type MsgPack struct{}

// ContentType implements [Codec].
func (MsgPack) ContentType() string { return "application/msgpack" }

// Encode implements [Codec].
func (MsgPack) Encode(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")

	return enc.Encode(v)
}

// Decode implements [Codec].
func (MsgPack) Decode(r io.Reader, v any) error {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")

	return dec.Decode(v)
}

// Proto is the application/x-protobuf codec. Values must implement
// proto.Message.
type Proto struct{}

// ContentType implements [Codec].
func (Proto) ContentType() string { return "application/x-protobuf" }

// Encode implements [Codec].
func (Proto) Encode(w io.Writer, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	data, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)

	return err
}

// Decode implements [Codec].
func (Proto) Decode(r io.Reader, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return io.EOF
	}

	return proto.Unmarshal(data, m)
}

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


package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/restsvc/restsvc/config"
	"github.com/restsvc/restsvc/engine"
	"github.com/restsvc/restsvc/engine/chiengine"
	"github.com/restsvc/restsvc/engine/echoengine"
	"github.com/restsvc/restsvc/engine/ginengine"
	"github.com/restsvc/restsvc/engine/stdmux"
)

// ErrUnknownEngine is returned by [NewEngine] for names outside [config.Engines].
var ErrUnknownEngine = errors.New("unknown engine")

// NewEngine creates a fresh host router adapter by name.
func NewEngine(name string) (engine.Engine, error) {
	switch strings.ToLower(name) {
	case "", "stdmux":
		return stdmux.New(), nil
	case "chi":
		return chiengine.New(), nil
	case "gin":
		return ginengine.New(), nil
	case "echo":
		return echoengine.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownEngine, name, strings.Join(config.Engines, ", "))
	}
}

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

package demo

import (
	"fmt"
	"strings"

	"github.com/restsvc/restsvc"
)

var greetings = map[string]string{
	"en": "Hello, %s!",
	"de": "Hallo, %s!",
	"fr": "Bonjour, %s !",
}

// Greeting is a localized message.
type Greeting struct {
	Message  string `json:"message" xml:"message" yaml:"message"`
	Language string `json:"language" xml:"language" yaml:"language"`
}

// GreetRequest names the person to greet.
type GreetRequest struct {
	Name  string `path:"name" validate:"required,max=64"`
	Shout bool   `query:"shout"`
}

// GreetingService answers in the negotiated language.
type GreetingService struct{}

// Describe implements restsvc.Service.
func (*GreetingService) Describe(d *restsvc.Descriptor) {
	d.Path("/greetings").
		AcceptLanguage("en", "de", "fr").
		Tags("greetings")

	d.GET("/:name", restsvc.Typed(greet)).
		Summary("Greet someone in their language")
}

func greet(ctx *restsvc.ServiceContext, in *GreetRequest) (*Greeting, error) {
	msg := fmt.Sprintf(greetings[ctx.Language], in.Name)
	if in.Shout {
		msg = strings.ToUpper(msg)
	}

	return &Greeting{Message: msg, Language: ctx.Language}, nil
}

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

import "reflect"

// Endpoint is the handler of one service method. The returned value is
// written as the response; see [Server] for the rules.
type Endpoint interface {
	Invoke(ctx *ServiceContext) (any, error)
}

// HandlerFunc adapts a function to [Endpoint].
type HandlerFunc func(ctx *ServiceContext) (any, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx *ServiceContext) (any, error) {
	return f(ctx)
}

// PreProcessor runs before the endpoint. Returning an error stops the
// request.
type PreProcessor func(ctx *ServiceContext) error

// PostProcessor runs after the endpoint succeeded, before the result is
// written. Returning an error replaces the result with that error.
type PostProcessor func(ctx *ServiceContext, result any) error

// EndpointTypes is implemented by endpoints that know their request and
// response types. It feeds the OpenAPI generator.
type EndpointTypes interface {
	RequestType() reflect.Type
	ResponseType() reflect.Type
}

// TypedEndpoint binds and validates a request of type In before calling its
// function. See [Typed].
type TypedEndpoint[In, Out any] struct {
	fn func(*ServiceContext, *In) (Out, error)
}

// Typed returns an endpoint that binds the request into a new In with
// [ServiceContext.Bind], validates it and passes it to fn.
//
//	type GetTodo struct {
//	    ID int64 `path:"id"`
//	}
//
//	d.GET("/:id", restsvc.Typed(func(ctx *restsvc.ServiceContext, in *GetTodo) (*Todo, error) {
//	    return store.Get(in.ID)
//	}))
func Typed[In, Out any](fn func(ctx *ServiceContext, in *In) (Out, error)) *TypedEndpoint[In, Out] {
	return &TypedEndpoint[In, Out]{fn: fn}
}

// Invoke implements [Endpoint].
func (e *TypedEndpoint[In, Out]) Invoke(ctx *ServiceContext) (any, error) {
	in := new(In)
	if err := ctx.Bind(in); err != nil {
		return nil, err
	}
	out, err := e.fn(ctx, in)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// RequestType implements [EndpointTypes].
func (e *TypedEndpoint[In, Out]) RequestType() reflect.Type { return reflect.TypeFor[In]() }

// ResponseType implements [EndpointTypes].
func (e *TypedEndpoint[In, Out]) ResponseType() reflect.Type { return reflect.TypeFor[Out]() }

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
	"errors"
	"fmt"
	"net/http"

	"github.com/restsvc/restsvc"
	rerrors "github.com/restsvc/restsvc/errors"
)

// TodoList is a page of todos.
type TodoList struct {
	Items  []Todo `json:"items" xml:"todo" yaml:"items" toml:"items"`
	Total  int    `json:"total" xml:"total" yaml:"total" toml:"total"`
	Offset int    `json:"offset" xml:"offset" yaml:"offset" toml:"offset"`
}

// ListTodos selects a page of todos.
type ListTodos struct {
	Done   *bool `query:"done" doc:"Filter by completion"`
	Offset int   `query:"offset" default:"0" validate:"min=0"`
	Limit  int   `query:"limit" default:"20" validate:"min=1,max=100" doc:"Page size"`
}

// TodoID addresses one todo.
type TodoID struct {
	ID int64 `path:"id" validate:"min=1"`
}

// CreateTodo is the body of a new todo.
type CreateTodo struct {
	Title string   `json:"title" xml:"title" yaml:"title" validate:"required,max=200"`
	Tags  []string `json:"tags" xml:"tag" yaml:"tags" validate:"max=10,dive,slug"`
}

// ReplaceTodo replaces a todo.
type ReplaceTodo struct {
	TodoID
	Title string   `json:"title" xml:"title" yaml:"title" validate:"required,max=200"`
	Done  bool     `json:"done" xml:"done" yaml:"done"`
	Tags  []string `json:"tags" xml:"tag" yaml:"tags" validate:"max=10,dive,slug"`
}

// PatchTodo changes the given fields only.
type PatchTodo struct {
	TodoID
	Title *string `json:"title" validate:"omitempty,max=200"`
	Done  *bool   `json:"done"`
}

// Validate implements validation.Validatable.
func (p *PatchTodo) Validate() error {
	if p.Title == nil && p.Done == nil {
		return errors.New("at least one of title or done is required")
	}

	return nil
}

// TodoService is a CRUD service over a [Store].
type TodoService struct {
	store *Store
}

// NewTodoService returns a service backed by store.
func NewTodoService(store *Store) *TodoService {
	return &TodoService{store: store}
}

// Describe implements restsvc.Service.
func (s *TodoService) Describe(d *restsvc.Descriptor) {
	d.Path("/todos").
		Accept("json", "xml", "yaml", "msgpack").
		Tags("todos")

	d.GET("", restsvc.Typed(s.list)).
		Summary("List todos").
		OperationID("listTodos").
		PostProcessor(cacheFor(30))
	d.GET("/:id", restsvc.Typed(s.get)).
		Summary("Get a todo").
		OperationID("getTodo")
	d.POST("", restsvc.Typed(s.create)).
		Consumes("json", "xml", "yaml").
		Status(http.StatusCreated).
		Security("editor").
		Summary("Create a todo").
		OperationID("createTodo")
	d.PUT("/:id", restsvc.Typed(s.replace)).
		Consumes("json", "xml", "yaml").
		Security("editor").
		OperationID("replaceTodo")
	d.PATCH("/:id", restsvc.Typed(s.patch)).
		Consumes("json").
		Security("editor").
		OperationID("patchTodo")
	d.DELETE("/:id", restsvc.Typed(s.remove)).
		Security("editor").
		OperationID("deleteTodo")
}

func (s *TodoService) list(_ *restsvc.ServiceContext, in *ListTodos) (*TodoList, error) {
	items, total := s.store.List(in.Done, in.Offset, in.Limit)
	return &TodoList{Items: items, Total: total, Offset: in.Offset}, nil
}

func (s *TodoService) get(_ *restsvc.ServiceContext, in *TodoID) (*Todo, error) {
	t, err := s.store.Get(in.ID)
	if err != nil {
		return nil, notFound(in.ID, err)
	}

	return &t, nil
}

func (s *TodoService) create(ctx *restsvc.ServiceContext, in *CreateTodo) (*restsvc.ReferencedResource, error) {
	t := s.store.Create(Todo{Title: in.Title, Tags: in.Tags})
	ctx.Logger().Info("todo created", "id", t.ID, "by", ctx.Principal.Subject)

	return restsvc.NewResource(fmt.Sprintf("/todos/%d", t.ID)).WithBody(&t), nil
}

func (s *TodoService) replace(_ *restsvc.ServiceContext, in *ReplaceTodo) (*Todo, error) {
	t, err := s.store.Update(in.ID, func(t *Todo) {
		t.Title = in.Title
		t.Done = in.Done
		t.Tags = in.Tags
	})
	if err != nil {
		return nil, notFound(in.ID, err)
	}

	return &t, nil
}

func (s *TodoService) patch(_ *restsvc.ServiceContext, in *PatchTodo) (*Todo, error) {
	t, err := s.store.Update(in.ID, func(t *Todo) {
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Done != nil {
			t.Done = *in.Done
		}
	})
	if err != nil {
		return nil, notFound(in.ID, err)
	}

	return &t, nil
}

func (s *TodoService) remove(_ *restsvc.ServiceContext, in *TodoID) (any, error) {
	if err := s.store.Delete(in.ID); err != nil {
		return nil, notFound(in.ID, err)
	}

	return nil, nil
}

func notFound(id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return rerrors.NotFoundError("todo %d not found", id).WithCause(err)
	}

	return err
}

// cacheFor sets Cache-Control on successful responses.
func cacheFor(seconds int) restsvc.PostProcessor {
	return func(ctx *restsvc.ServiceContext, _ any) error {
		ctx.Response.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", seconds))
		return nil
	}
}

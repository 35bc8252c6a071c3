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
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrNotFound is returned for an unknown todo id.
var ErrNotFound = errors.New("todo not found")

// Todo is one task.
type Todo struct {
	ID        int64     `json:"id" xml:"id" yaml:"id" toml:"id"`
	Title     string    `json:"title" xml:"title" yaml:"title" toml:"title"`
	Done      bool      `json:"done" xml:"done" yaml:"done" toml:"done"`
	Tags      []string  `json:"tags,omitempty" xml:"tag,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at" xml:"created_at" yaml:"created_at" toml:"created_at"`
}

// Store keeps todos in memory.
type Store struct {
	mu     sync.RWMutex
	todos  map[int64]Todo
	nextID int64
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{todos: make(map[int64]Todo), nextID: 1, now: time.Now}
}

// List returns todos ordered by id, optionally filtered by done state.
func (s *Store) List(done *bool, offset, limit int) ([]Todo, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if done == nil || t.Done == *done {
			all = append(all, t)
		}
	}
	slices.SortFunc(all, func(a, b Todo) int { return cmp.Compare(a.ID, b.ID) })

	total := len(all)
	if offset >= total {
		return []Todo{}, total
	}
	end := min(offset+limit, total)

	return all[offset:end], total
}

// Get returns the todo with id.
func (s *Store) Get(id int64) (Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok {
		return Todo{}, ErrNotFound
	}

	return t, nil
}

// Create stores a new todo and assigns its id.
func (s *Store) Create(t Todo) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID
	t.CreatedAt = s.now().UTC()
	s.nextID++
	s.todos[t.ID] = t

	return t
}

// Update applies fn to the stored todo.
func (s *Store) Update(id int64, fn func(*Todo)) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	fn(&t)
	t.ID = id
	s.todos[id] = t

	return t, nil
}

// Delete removes a todo.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return ErrNotFound
	}
	delete(s.todos, id)

	return nil
}

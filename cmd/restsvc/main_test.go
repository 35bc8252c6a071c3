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


package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/restsvc/restsvc/app"
	"github.com/restsvc/restsvc/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-prefix", "RESTSVC_TEST_UNSET_"}, args...))
	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestRoutesCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "routes")
	require.NoError(t, err)

	assert.Contains(t, out, "METHOD")
	assert.Regexp(t, `POST\s+/todos\s+TodoService\s+201\s+default \[editor\]`, out)
	assert.Regexp(t, `GET\s+/greetings/:name\s+GreetingService\s+200\s+-`, out)
	assert.Regexp(t, `POST\s+/files/exports\s+FileService\s+200\s+default \[\*\]`, out)
}

func TestOpenAPICmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "openapi")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	out, err = execute(t, "openapi", "--format", "yaml")
	require.NoError(t, err)
	doc = nil
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc["paths"], "/todos/{id}")

	_, err = execute(t, "openapi", "--format", "csv")
	require.ErrorContains(t, err, "unknown format")
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "restsvc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: todo-api\n  version: 3.0.0\n"), 0o600))

	out, err := execute(t, "--config", path, "openapi")
	require.NoError(t, err)
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "todo-api", doc.Info.Title)
	assert.Equal(t, "3.0.0", doc.Info.Version)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "routes")
	require.Error(t, err)
}

func TestServeCmd_InvalidEngine(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "serve", "--engine", "fasthttp", "--addr", "127.0.0.1:0")
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.NotErrorIs(t, err, app.ErrUnknownEngine)
}

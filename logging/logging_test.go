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
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(
		WithOutput(&buf),
		WithServiceName("todo-api"),
		WithServiceVersion("1.2.0"),
		WithEnvironment("test"),
	)
	require.NoError(t, err)

	l.Logger().Info("started", "password", "hunter2", "Authorization", "Bearer x", "port", 8080)
	l.Logger().Debug("hidden")

	entries, err := ParseEntries(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "started", e.Message)
	assert.Equal(t, "todo-api", e.Attrs["service"])
	assert.Equal(t, "1.2.0", e.Attrs["version"])
	assert.Equal(t, "test", e.Attrs["env"])
	assert.Equal(t, Redacted, e.Attrs["password"])
	assert.Equal(t, Redacted, e.Attrs["Authorization"])
	assert.InDelta(t, 8080, e.Attrs["port"], 0)
}

func TestTextHandlerAndReplaceAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(
		WithTextHandler(),
		WithOutput(&buf),
		WithReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}),
	)
	l.Logger().Warn("slow", "token", "abc")

	assert.Equal(t, "level=WARN msg=slow token=***REDACTED***\n", buf.String())
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	l, buf := NewTestLogger()
	derived := l.Logger().With("component", "x")

	l.SetLevel(LevelError)
	assert.Equal(t, LevelError, l.Level())
	derived.Warn("dropped")
	assert.Empty(t, buf.String())

	l.SetLevel(LevelDebug)
	derived.Debug("kept")
	assert.True(t, strings.Contains(buf.String(), `"component":"x"`))
}

func TestInvalidHandler(t *testing.T) {
	t.Parallel()

	_, err := New(WithHandlerType("xml"))
	require.ErrorIs(t, err, ErrInvalidHandler)

	_, err = New(WithOutput(nil))
	require.Error(t, err)

	assert.Panics(t, func() { MustNew(WithHandlerType("xml")) })
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestWithTrace(t *testing.T) {
	t.Parallel()

	l, buf := NewTestLogger()

	assert.Same(t, l.Logger(), WithTrace(context.Background(), l.Logger()))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	WithTrace(ctx, l.Logger()).Info("traced")

	entries, err := ParseEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entries[0].Attrs[FieldTraceID])
	assert.Equal(t, "00f067aa0ba902b7", entries[0].Attrs[FieldSpanID])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.False(t, Discard().Enabled(context.Background(), LevelError))
}

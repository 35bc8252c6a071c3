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


// Package compress provides net/http middleware that compresses responses
// with Brotli or gzip, chosen from the request's Accept-Encoding header.
//
//	mw, err := compress.New(compress.WithMinSize(1024))
//	if err != nil {
//	    return err
//	}
//	http.ListenAndServe(":8080", mw(handler))
//
// Bodies shorter than the minimum size, HEAD requests, 1xx/204/206/304
// responses, already encoded responses and streaming or binary content
// types are passed through unchanged.
package compress

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Encodings.
const (
	Brotli = "br"
	Gzip   = "gzip"
)

// ErrInvalidLevel is returned by [New] for out-of-range compression levels.
var ErrInvalidLevel = errors.New("invalid compression level")

// Option configures the middleware.
type Option func(*config)

type config struct {
	gzipLevel   int
	brotliLevel int
	minSize     int
	gzip        bool
	brotli      bool
	excluded    []string

	gzipPool   sync.Pool
	brotliPool sync.Pool
}

// WithGzipLevel sets the gzip level (-2..9). Defaults to gzip.DefaultCompression.
func WithGzipLevel(level int) Option {
	return func(c *config) { c.gzipLevel = level }
}

// WithBrotliLevel sets the Brotli level (0..11). Defaults to 4, which suits
// dynamic JSON and text.
func WithBrotliLevel(level int) Option {
	return func(c *config) { c.brotliLevel = level }
}

// WithMinSize sets the body size below which responses are sent as is.
func WithMinSize(n int) Option {
	return func(c *config) { c.minSize = max(n, 0) }
}

// WithoutBrotli disables Brotli.
func WithoutBrotli() Option {
	return func(c *config) { c.brotli = false }
}

// WithoutGzip disables gzip.
func WithoutGzip() Option {
	return func(c *config) { c.gzip = false }
}

// WithExcludedContentTypes skips responses whose Content-Type contains any
// of the given values.
func WithExcludedContentTypes(types ...string) Option {
	return func(c *config) {
		for _, t := range types {
			c.excluded = append(c.excluded, strings.ToLower(t))
		}
	}
}

// New returns the compression middleware.
func New(opts ...Option) (func(http.Handler) http.Handler, error) {
	cfg := &config{
		gzipLevel:   gzip.DefaultCompression,
		brotliLevel: 4,
		gzip:        true,
		brotli:      true,
		excluded:    []string{"text/event-stream", "application/grpc", "application/octet-stream"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.gzipLevel < gzip.HuffmanOnly || cfg.gzipLevel > gzip.BestCompression {
		return nil, fmt.Errorf("%w: gzip %d", ErrInvalidLevel, cfg.gzipLevel)
	}
	if cfg.brotliLevel < brotli.BestSpeed || cfg.brotliLevel > brotli.BestCompression {
		return nil, fmt.Errorf("%w: brotli %d", ErrInvalidLevel, cfg.brotliLevel)
	}
	cfg.gzipPool.New = func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		return w
	}
	cfg.brotliPool.New = func() any {
		return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")

			enc := cfg.choose(r.Header.Get("Accept-Encoding"))
			if enc == "" || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cw := &writer{ResponseWriter: w, cfg: cfg, encoding: enc, status: http.StatusOK}
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}, nil
}

// choose picks Brotli over gzip unless gzip has a higher q-value.
func (c *config) choose(acceptEncoding string) string {
	if acceptEncoding == "" {
		return ""
	}
	brQ, gzQ := qValues(acceptEncoding)
	if c.brotli && brQ > 0 && brQ >= gzQ {
		return Brotli
	}
	if c.gzip && gzQ > 0 {
		return Gzip
	}
	if c.brotli && brQ > 0 {
		return Brotli
	}

	return ""
}

// qValues returns the q-values of br and gzip; "*" covers either when not
// listed explicitly.
func qValues(header string) (br, gz float64) {
	br, gz = -1, -1
	wildcard := -1.0
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case Brotli:
			br = q
		case Gzip, "x-gzip":
			gz = q
		case "*":
			wildcard = q
		}
	}
	if br < 0 {
		br = max(wildcard, 0)
	}
	if gz < 0 {
		gz = max(wildcard, 0)
	}

	return br, gz
}

// writer buffers the body until minSize bytes decide between compressing
// and passing through.
type writer struct {
	http.ResponseWriter
	cfg      *config
	encoding string
	status   int

	wroteHeader bool
	decided     bool
	compressing bool
	buf         []byte
	enc         io.WriteCloser
}

func (w *writer) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	if skipStatus(code) || w.Header().Get("Content-Encoding") != "" || w.excluded() {
		w.passThrough()
	}
}

func (w *writer) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.decided {
		if w.compressing {
			return w.enc.Write(p)
		}
		return w.ResponseWriter.Write(p)
	}

	w.buf = append(w.buf, p...)
	if len(w.buf) >= w.cfg.minSize {
		if err := w.start(); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

func (w *writer) excluded() bool {
	ct := strings.ToLower(w.Header().Get("Content-Type"))
	if ct == "" {
		return false
	}
	for _, e := range w.cfg.excluded {
		if strings.Contains(ct, e) {
			return true
		}
	}

	return false
}

func (w *writer) passThrough() {
	w.decided = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *writer) start() error {
	w.decided, w.compressing = true, true

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", w.encoding)
	w.ResponseWriter.WriteHeader(w.status)

	switch w.encoding {
	case Brotli:
		bw := w.cfg.brotliPool.Get().(*brotli.Writer)
		bw.Reset(w.ResponseWriter)
		w.enc = bw
	default:
		gw := w.cfg.gzipPool.Get().(*gzip.Writer)
		gw.Reset(w.ResponseWriter)
		w.enc = gw
	}

	buf := w.buf
	w.buf = nil
	_, err := w.enc.Write(buf)

	return err
}

// Close sends a short buffered body uncompressed, or finishes the
// compressed stream and returns the encoder to its pool.
func (w *writer) Close() error {
	if !w.decided {
		if !w.wroteHeader {
			return nil
		}
		w.passThrough()
		if len(w.buf) == 0 {
			return nil
		}
		_, err := w.ResponseWriter.Write(w.buf)
		return err
	}
	if !w.compressing {
		return nil
	}

	err := w.enc.Close()
	switch e := w.enc.(type) {
	case *brotli.Writer:
		e.Reset(io.Discard)
		w.cfg.brotliPool.Put(e)
	case *gzip.Writer:
		e.Reset(io.Discard)
		w.cfg.gzipPool.Put(e)
	}
	w.enc = nil

	return err
}

// Flush starts compression with whatever is buffered, then flushes the
// encoder and the underlying writer.
func (w *writer) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.decided {
		if err := w.start(); err != nil {
			return
		}
	}
	if w.compressing {
		if f, ok := w.enc.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer does.
func (w *writer) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.decided = true

	return h.Hijack()
}

// Unwrap returns the underlying writer for http.ResponseController.
func (w *writer) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func skipStatus(code int) bool {
	return code < http.StatusOK ||
		code == http.StatusNoContent ||
		code == http.StatusPartialContent ||
		code == http.StatusNotModified
}

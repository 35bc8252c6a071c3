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

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/compress"
	rerrors "github.com/restsvc/restsvc/errors"
	"github.com/restsvc/restsvc/logging"
	"github.com/restsvc/restsvc/metrics"
	"github.com/restsvc/restsvc/tracing"
)

// Engines lists the supported host router names.
var Engines = []string{"stdmux", "chi", "gin", "echo"}

// Request id formats.
const (
	RequestIDUUID = "uuid"
	RequestIDULID = "ulid"
)

// Error formats.
const (
	ErrorFormatSimple  = "simple"
	ErrorFormatRFC9457 = "rfc9457"
	ErrorFormatJSONAPI = "jsonapi"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of a restsvc server.
type Config struct {
	Service Service `config:"service" envPrefix:"SERVICE_"`
	Server  Server  `config:"server" envPrefix:"SERVER_"`

	Compression Compression `config:"compression" envPrefix:"COMPRESSION_"`
	Logging Logging `config:"logging" envPrefix:"LOGGING_"`
	Errors  Errors  `config:"errors" envPrefix:"ERRORS_"`
	Metrics Metrics `config:"metrics" envPrefix:"METRICS_"`
	Tracing Tracing `config:"tracing" envPrefix:"TRACING_"`
}

// Service identifies the deployment in logs and traces.
type Service struct {
	Name        string `config:"name" env:"NAME"`
	Version     string `config:"version" env:"VERSION"`
	Environment string `config:"environment" env:"ENVIRONMENT"`
}

// Server configures the HTTP listener and request handling.
type Server struct {
	Addr   string `config:"addr" env:"ADDR"`
	Engine string `config:"engine" env:"ENGINE"`

	ReadTimeout     time.Duration `config:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `config:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `config:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	MaxMultipartMemory int64  `config:"max_multipart_memory" env:"MAX_MULTIPART_MEMORY"`
	RequestIDHeader    string `config:"request_id_header" env:"REQUEST_ID_HEADER"`
	// RequestIDFormat is "uuid" (version 7) or "ulid".
	RequestIDFormat string `config:"request_id_format" env:"REQUEST_ID_FORMAT"`
}

// Compression configures Brotli and gzip response compression.
type Compression struct {
	Enabled     bool `config:"enabled" env:"ENABLED"`
	MinSize     int  `config:"min_size" env:"MIN_SIZE"`
	GzipLevel   int  `config:"gzip_level" env:"GZIP_LEVEL"`
	BrotliLevel int  `config:"brotli_level" env:"BROTLI_LEVEL"`
	Brotli      bool `config:"brotli" env:"BROTLI"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `config:"level" env:"LEVEL"`
	Format string `config:"format" env:"FORMAT"`
	Source bool   `config:"source" env:"SOURCE"`
}

// Errors configures error responses.
type Errors struct {
	Format  string `config:"format" env:"FORMAT"`
	BaseURL string `config:"base_url" env:"BASE_URL"`
	// Expose sends messages of unexpected errors to clients.
	Expose bool `config:"expose" env:"EXPOSE"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled   bool   `config:"enabled" env:"ENABLED"`
	Path      string `config:"path" env:"PATH"`
	Namespace string `config:"namespace" env:"NAMESPACE"`
}

// Tracing configures OpenTelemetry.
type Tracing struct {
	Enabled      bool    `config:"enabled" env:"ENABLED"`
	Exporter     string  `config:"exporter" env:"EXPORTER"`
	SampleRatio  float64 `config:"sample_ratio" env:"SAMPLE_RATIO"`
	OTLPEndpoint string  `config:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	OTLPInsecure bool    `config:"otlp_insecure" env:"OTLP_INSECURE"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Service: Service{
			Name:        "restsvc",
			Environment: "development",
		},
		Server: Server{
			Addr:               ":8080",
			Engine:             "stdmux",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxMultipartMemory: 32 << 20,
			RequestIDHeader:    "X-Request-ID",
			RequestIDFormat:    RequestIDUUID,
		},
		Compression: Compression{
			MinSize:     1024,
			GzipLevel:   -1,
			BrotliLevel: 4,
			Brotli:      true,
		},
		Logging: Logging{
			Level:  "info",
			Format: string(logging.JSONHandler),
		},
		Errors: Errors{
			Format: ErrorFormatSimple,
		},
		Metrics: Metrics{
			Path:      "/metrics",
			Namespace: "restsvc",
		},
		Tracing: Tracing{
			Exporter:    string(tracing.ExporterStdout),
			SampleRatio: 1,
		},
	}
}

// Validate reports every invalid setting. The returned error wraps
// [ErrInvalid].
func (c *Config) Validate() error {
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, NewFieldError("validate", field, "check", fmt.Errorf("%w: %w", ErrInvalid, err)))
		}
	}

	if c.Server.Addr == "" {
		check("server.addr", errors.New("must not be empty"))
	}
	if !slices.Contains(Engines, c.Server.Engine) {
		check("server.engine", fmt.Errorf("%q is not one of %s", c.Server.Engine, strings.Join(Engines, ", ")))
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			check(name, fmt.Errorf("%s must not be negative", d))
		}
	}
	if c.Server.MaxMultipartMemory <= 0 {
		check("server.max_multipart_memory", errors.New("must be positive"))
	}
	switch c.Server.RequestIDFormat {
	case RequestIDUUID, RequestIDULID:
	default:
		check("server.request_id_format", fmt.Errorf("%q is not one of uuid, ulid", c.Server.RequestIDFormat))
	}

	if c.Compression.Enabled {
		if c.Compression.MinSize < 0 {
			check("compression.min_size", errors.New("must not be negative"))
		}
		if c.Compression.GzipLevel < -2 || c.Compression.GzipLevel > 9 {
			check("compression.gzip_level", fmt.Errorf("%d is outside [-2, 9]", c.Compression.GzipLevel))
		}
		if c.Compression.BrotliLevel < 0 || c.Compression.BrotliLevel > 11 {
			check("compression.brotli_level", fmt.Errorf("%d is outside [0, 11]", c.Compression.BrotliLevel))
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		check("logging.level", err)
	}
	switch logging.HandlerType(c.Logging.Format) {
	case logging.JSONHandler, logging.TextHandler:
	default:
		check("logging.format", fmt.Errorf("%w: %q", logging.ErrInvalidHandler, c.Logging.Format))
	}

	switch c.Errors.Format {
	case ErrorFormatSimple, ErrorFormatRFC9457, ErrorFormatJSONAPI:
	default:
		check("errors.format", fmt.Errorf("%q is not one of simple, rfc9457, jsonapi", c.Errors.Format))
	}

	if c.Metrics.Enabled {
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			check("metrics.path", fmt.Errorf("%q must start with /", c.Metrics.Path))
		}
		if c.Metrics.Namespace == "" {
			check("metrics.namespace", errors.New("must not be empty"))
		}
	}

	if c.Tracing.Enabled {
		switch tracing.Exporter(c.Tracing.Exporter) {
		case tracing.ExporterNone, tracing.ExporterStdout:
		case tracing.ExporterOTLPHTTP:
			if c.Tracing.OTLPEndpoint == "" {
				check("tracing.otlp_endpoint", errors.New("required by the otlp-http exporter"))
			}
		default:
			check("tracing.exporter", fmt.Errorf("%w: %q", tracing.ErrUnknownExporter, c.Tracing.Exporter))
		}
		if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
			check("tracing.sample_ratio", fmt.Errorf("%g is outside [0, 1]", c.Tracing.SampleRatio))
		}
	}

	return errors.Join(errs...)
}

// LoggingOptions translates the logging and service sections.
func (c *Config) LoggingOptions() []logging.Option {
	level, _ := logging.ParseLevel(c.Logging.Level)

	return []logging.Option{
		logging.WithHandlerType(logging.HandlerType(c.Logging.Format)),
		logging.WithLevel(level),
		logging.WithSource(c.Logging.Source),
		logging.WithServiceName(c.Service.Name),
		logging.WithServiceVersion(c.Service.Version),
		logging.WithEnvironment(c.Service.Environment),
	}
}

// TracingOptions translates the tracing and service sections. A disabled
// tracing section selects the no-op exporter.
func (c *Config) TracingOptions() []tracing.Option {
	exporter := tracing.Exporter(c.Tracing.Exporter)
	if !c.Tracing.Enabled {
		exporter = tracing.ExporterNone
	}
	opts := []tracing.Option{
		tracing.WithServiceName(c.Service.Name),
		tracing.WithServiceVersion(c.Service.Version),
		tracing.WithExporter(exporter),
		tracing.WithSampleRatio(c.Tracing.SampleRatio),
	}
	if c.Tracing.OTLPEndpoint != "" {
		opts = append(opts,
			tracing.WithOTLPEndpoint(c.Tracing.OTLPEndpoint),
			tracing.WithOTLPInsecure(c.Tracing.OTLPInsecure),
		)
	}

	return opts
}

// RequestIDGenerator returns the generator selected by
// server.request_id_format.
func (c *Config) RequestIDGenerator() func() string {
	if c.Server.RequestIDFormat == RequestIDULID {
		return restsvc.ULIDRequestID
	}
	return restsvc.UUIDRequestID
}

// CompressionOptions translates the compression section.
func (c *Config) CompressionOptions() []compress.Option {
	opts := []compress.Option{
		compress.WithMinSize(c.Compression.MinSize),
		compress.WithGzipLevel(c.Compression.GzipLevel),
		compress.WithBrotliLevel(c.Compression.BrotliLevel),
	}
	if !c.Compression.Brotli {
		opts = append(opts, compress.WithoutBrotli())
	}
	return opts
}

// MetricsOptions translates the metrics section.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{metrics.WithNamespace(c.Metrics.Namespace)}
}

// ErrorFormatter returns the formatter selected by the errors section.
func (c *Config) ErrorFormatter() rerrors.Formatter {
	switch c.Errors.Format {
	case ErrorFormatRFC9457:
		return rerrors.NewRFC9457(c.Errors.BaseURL)
	case ErrorFormatJSONAPI:
		return rerrors.NewJSONAPI()
	default:
		return rerrors.NewSimple()
	}
}

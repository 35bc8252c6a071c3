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

// Package config loads the settings of a restsvc server.
//
// Values come, in increasing precedence, from [Default], configuration files
// (YAML, TOML or JSON, chosen by extension) and environment variables:
//
//	cfg, err := config.Load(ctx,
//	    config.WithFile("restsvc.yaml"),
//	    config.WithEnv("RESTSVC_"),
//	)
//
// File keys are matched case-insensitively against the `config` tags of
// [Config]. Environment variables use the `env` tags below the prefix, for
// example RESTSVC_SERVER_ADDR or RESTSVC_TRACING_SAMPLE_RATIO.
package config

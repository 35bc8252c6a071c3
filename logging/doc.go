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

// Package logging configures the structured [log/slog] logger used by
// restsvc servers and the restsvc command.
//
// Basic usage:
//
//	logger := logging.MustNew(
//	    logging.WithTextHandler(),
//	    logging.WithServiceName("todo-api"),
//	    logging.WithLevel(logging.LevelDebug),
//	)
//	srv := restsvc.MustNew(restsvc.WithLogger(logger.Logger()))
//
// Attributes named password, token, secret, api_key or authorization are
// redacted. [WithTrace] adds OpenTelemetry trace and span ids to a logger.
package logging

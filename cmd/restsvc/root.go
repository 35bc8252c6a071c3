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
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/restsvc/restsvc"
	"github.com/restsvc/restsvc/app"
	"github.com/restsvc/restsvc/config"
	"github.com/restsvc/restsvc/internal/demo"
)

type rootOptions struct {
	configFile string
	envPrefix  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "restsvc",
		Short:         "Declarative REST services on pluggable routers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.envPrefix, "env-prefix", "RESTSVC_", "prefix of environment overrides")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoutesCmd(opts),
		newOpenAPICmd(opts),
	)

	return cmd
}

func (o *rootOptions) load(ctx context.Context) (*config.Config, error) {
	var loadOpts []config.Option
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithFile(o.configFile))
	}
	if o.envPrefix != "" {
		loadOpts = append(loadOpts, config.WithEnv(o.envPrefix))
	}

	return config.Load(ctx, loadOpts...)
}

// inspect builds the demo app quietly for the read-only commands.
func (o *rootOptions) inspect(ctx context.Context) (*app.App, error) {
	cfg, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	cfg.Tracing.Enabled = false
	cfg.Metrics.Enabled = false

	return newApp(ctx, *cfg, app.WithLogOutput(io.Discard))
}

func newApp(ctx context.Context, cfg config.Config, opts ...app.Option) (*app.App, error) {
	opts = append(opts, app.WithAuthenticator(restsvc.DefaultAuthenticator, demo.Tokens()))
	return app.New(ctx, cfg, demo.Services(demo.NewStore()), opts...)
}

// Copyright 2025 pqmagic-foe
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

package commands

import (
	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd(opts *opts.RootOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preview API",
		Long: `serve exposes the engine over HTTP until interrupted.
Mapping, formatting and GPSR files are loaded once at startup; POST /api/reload
re-reads them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "serve").Logger().WithContext(cmd.Context())
			if addr == "" {
				addr = opts.Config.Server.Addr
			}

			if err := opts.Engine.Reload(ctx); err != nil {
				opts.Logger.Warningf("starting with degraded tables: %v", err)
			}

			opts.Logger.Successf("serving on %s", addr)
			return server.New(ctx, opts.Engine).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

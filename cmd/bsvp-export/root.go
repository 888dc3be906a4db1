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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/commands"
	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/config"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/engine"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	envFile    string
	debug      bool
)

func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:           "bsvp-export",
		Short:         "Turn BSVP product records into JSON-LD, GPSR blocks and shop columns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context())
			cmd.SetContext(ctx)
			return fillRootOpts(ctx, rootOpts)
		},
	}

	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewJSONLDCmd(rootOpts),
		commands.NewGPSRCmd(rootOpts),
		commands.NewShopCmd(rootOpts),
		commands.NewFormatCmd(rootOpts),
		commands.NewMappingCmd(rootOpts),
		commands.NewMaskCmd(rootOpts),
		commands.NewServeCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// fillRootOpts loads the config and builds the engine shared by all commands
func fillRootOpts(ctx context.Context, o *opts.RootOpts) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	} else if err := config.LoadDotEnv(); err != nil {
		return err
	}

	path := configFile
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	if debug {
		zerolog.Ctx(ctx).Debug().Msg(spew.Sdump(cfg))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	o.Config = cfg
	o.Engine = engine.New(cfg, engine.Options{})
	o.Logger = log.New(os.Stderr, level)
	o.UserLogger = log.NewUserLoggerTo(ctx, os.Stderr)
	o.Debug = debug
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", fmt.Sprintf("config file path (yaml, json or hcl; falls back to $%s)", config.EnvConfig))
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the config (default .env)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags and returns ctx carrying
// the logger
func setupLogging(ctx context.Context) context.Context {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger.WithContext(ctx)
}

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
	"fmt"

	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/gpsr"
	"github.com/spf13/cobra"
)

// NewGPSRCmd creates the gpsr command
func NewGPSRCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gpsr <record>",
		Short: "Render the GPSR block of one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rec, err := loadRecord(ctx, cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if !gpsr.Enabled(rec) {
				opts.Logger.Warningf("GPSR is not enabled for %s", rec.DisplayName())
				return nil
			}

			out, ok := opts.Engine.RenderGPSR(ctx, rec)
			if !ok {
				opts.Logger.Warningf("no GPSR config matched %s", rec.DisplayName())
				return nil
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	return cmd
}

// NewShopCmd creates the shop command
func NewShopCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop <record>",
		Short: "Show the shop columns of one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadRecord(cmd.Context(), cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), opts.Engine.Shop(cmd.Context(), rec))
		},
	}

	return cmd
}

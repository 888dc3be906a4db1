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
	"github.com/spf13/cobra"
)

// NewFormatCmd creates the format command
func NewFormatCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		forJSONLD bool
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "format <field-id> <value>",
		Short: "Apply the formatting rules of a TECHDATA field to a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			field, value := args[0], args[1]

			if explain {
				for i, e := range opts.Engine.Operations(ctx, field) {
					id := e.ID
					if id == "" {
						id = "-"
					}
					opts.Logger.Infof("%d. %s (%s)", i+1, e.Kind, id)
				}
			}

			out := opts.Engine.FormatField(ctx, value, field)
			if forJSONLD {
				out = opts.Engine.FormatFieldJSONLD(ctx, value, field)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&forJSONLD, "jsonld", false, "use the JSON-LD formatting rules")
	cmd.Flags().BoolVar(&explain, "explain", false, "list the operations in application order")

	return cmd
}

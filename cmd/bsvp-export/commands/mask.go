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
	"os"

	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mask"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewMaskCmd creates the mask command group
func NewMaskCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Work with technical masks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "parse <file.bcm>",
		Short: "Print the entries of a .bcm mask as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Errorf("reading mask: %w", err)
			}

			entries := mask.ParseBCM(string(data))
			file := mask.File{Name: args[0], Entries: entries}
			if pt := file.ProductType(); pt != "" {
				opts.Logger.Infof("product type %s, %d entries", pt, len(entries))
			} else {
				opts.Logger.Warningf("%s has no product type name", args[0])
			}

			return printJSON(cmd.OutOrStdout(), entries)
		},
	})

	return cmd
}

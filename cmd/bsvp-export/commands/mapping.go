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
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/pqmagic-foe/bsvp-csv-export/cmd/bsvp-export/opts"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/log"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mapping"
	"github.com/pqmagic-foe/bsvp-csv-export/pkg/mask"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewMappingCmd creates the mapping command group
func NewMappingCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect and maintain the JSON-LD mapping",
	}

	cmd.AddCommand(
		newMappingShowCmd(opts),
		newMappingCheckCmd(opts),
		newMappingUpdateCmd(opts),
	)
	return cmd
}

func newMappingShowCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show [product-type]",
		Short: "List product types, or print the merged mapping of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				for _, pt := range opts.Engine.ProductTypes(ctx) {
					fmt.Fprintln(cmd.OutOrStdout(), pt)
				}
				return nil
			}

			fm, ok := opts.Engine.ResolveMapping(ctx, args[0])
			if !ok {
				return errors.Errorf("product type %q is not mapped in %s", args[0], opts.Config.Mapping)
			}
			if opts.Debug {
				zerolog.Ctx(ctx).Debug().Msg(spew.Sdump(fm))
			}
			return printJSON(cmd.OutOrStdout(), fm)
		},
	}
}

func newMappingCheckCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the mapping file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Config.Mapping

			doc, err := mapping.LoadDocument(path)
			if err == nil {
				err = doc.Validate()
			}
			if err != nil {
				opts.UserLogger.LogValidation(false, "mapping "+path+" is invalid", err)
				return err
			}

			unknown := undefinedProperties(doc)
			for _, id := range unknown {
				opts.UserLogger.LogChange(log.Change{Type: log.ChangeSkipped, Subject: id, Description: "no property definition"})
			}
			opts.UserLogger.LogValidation(len(unknown) == 0, fmt.Sprintf("mapping %s: %d product types, %d property definitions", path, len(doc.ProductTypes), len(doc.PropertyDefinitions)), nil)
			return nil
		},
	}
}

// undefinedProperties lists additional property ids without a definition.
func undefinedProperties(doc *mapping.Document) []string {
	seen := map[string]bool{}
	var out []string
	for _, section := range doc.ProductTypes {
		if section == nil {
			continue
		}
		for _, id := range section.AdditionalProperties {
			if _, ok := doc.PropertyDefinitions[id]; ok || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func newMappingUpdateCmd(opts *opts.RootOpts) *cobra.Command {
	var masksDir string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the mapping from the technical masks",
		Long: `update reads every technical mask (.bcm or .bcm.json) and rewrites the mapping.
It will:
1. Derive a property definition from every labelled mask field
2. Keep existing definitions untouched and add new ones
3. Replace the product types with one entry per mask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := masksDir
			if dir == "" {
				dir = opts.Config.MasksDir
			}

			if _, err := os.Stat(dir); err != nil {
				return errors.Errorf("masks directory: %w", err)
			}

			files, err := mask.ReadFiles(ctx, dir)
			if err != nil {
				return err
			}

			ex := mask.Extract(files)
			for _, name := range ex.Skipped {
				opts.UserLogger.LogChange(log.Change{Type: log.ChangeSkipped, Subject: name, Description: "no product type name"})
			}

			res, err := mask.UpdateFile(ctx, opts.Config.Mapping, ex)
			if err != nil {
				opts.UserLogger.LogChange(log.Change{Type: log.ChangeError, Subject: opts.Config.Mapping, Error: err})
				return err
			}

			opts.UserLogger.LogChange(log.Change{
				Type:        log.ChangeUpdated,
				Subject:     opts.Config.Mapping,
				Description: fmt.Sprintf("%d new definitions", res.Added),
			})
			opts.Engine.Invalidate()

			return opts.UserLogger.Summary("mapping update", [][]string{
				{"masks", fmt.Sprint(len(files))},
				{"definitions added", fmt.Sprint(res.Added)},
				{"definitions total", fmt.Sprint(res.Definitions)},
				{"product types", fmt.Sprint(res.ProductTypes)},
			})
		},
	}

	cmd.Flags().StringVar(&masksDir, "masks", "", "directory with technical masks (default from config)")
	return cmd
}

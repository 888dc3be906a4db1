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

package log

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger gives user-facing feedback for one-off commands (mapping
// updates, mask parsing, reloads) and prints run summaries.
type UserLogger struct {
	log zerolog.Logger
	out io.Writer
}

// 🎨 ChangeType is the kind of change made to a mapping or config
type ChangeType int

const (
	ChangeAdded ChangeType = iota
	ChangeUpdated
	ChangeSkipped
	ChangeError
)

// 🖼️ Change is one change reported to the user
type Change struct {
	Type        ChangeType
	Subject     string
	Description string
	Error       error
}

// 🎯 NewUserLogger creates a user logger printing to stdout
func NewUserLogger(ctx context.Context) *UserLogger {
	return NewUserLoggerTo(ctx, os.Stdout)
}

// NewUserLoggerTo creates a user logger printing to out.
func NewUserLoggerTo(ctx context.Context, out io.Writer) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
		out: out,
	}
}

func (u *UserLogger) printer(base pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: prefix, Style: base.Prefix.Style}).WithWriter(u.out)
}

// 📝 LogChange logs a change with a matching emoji
func (u *UserLogger) LogChange(change Change) {
	var action string
	var printer *pterm.PrefixPrinter
	switch change.Type {
	case ChangeAdded:
		action = "Added"
		printer = u.printer(pterm.Success, "✨")
	case ChangeUpdated:
		action = "Updated"
		printer = u.printer(pterm.Info, "🔄")
	case ChangeSkipped:
		action = "Skipped"
		printer = u.printer(pterm.Warning, "⏭️")
	case ChangeError:
		action = "Error"
		printer = u.printer(pterm.Error, "❌")
	}

	msg := fmt.Sprintf("%s %s", action, change.Subject)
	if change.Description != "" {
		msg += fmt.Sprintf(" (%s)", change.Description)
	}

	printer.Println(msg)
	if change.Error != nil {
		u.printer(pterm.Error, "❌").Println(change.Error.Error())
		u.log.Error().Err(change.Error).Msg(msg)
		return
	}
	u.log.Info().Msg(msg)
}

// 📊 LogStateChange logs a change to the overall state
func (u *UserLogger) LogStateChange(description string) {
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	switch {
	case valid:
		u.printer(pterm.Success, "✅").Println(description)
		u.log.Info().Msg(description)
	case err != nil:
		u.printer(pterm.Error, "❌").Println(description)
		u.printer(pterm.Error, "❌").Println(err.Error())
		u.log.Error().Err(err).Msg(description)
	default:
		u.printer(pterm.Warning, "⚠️").Println(description)
		u.log.Warn().Msg(description)
	}
}

// 📋 Summary prints rows of label/value pairs as a table under title.
func (u *UserLogger) Summary(title string, rows [][]string) error {
	data := make([][]string, 0, len(rows)+1)
	data = append(data, []string{title, ""})
	data = append(data, rows...)

	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).WithWriter(u.out).Render(); err != nil {
		return err
	}
	u.log.Info().Int("rows", len(rows)).Str("title", title).Msg("printed summary")
	return nil
}

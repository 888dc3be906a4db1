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
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	productIndent = 4  // spaces to indent product entries
	nameWidth     = 35 // Base width for product name
	typeWidth     = 15 // Width for product type
	statusWidth   = 15 // Width for status text
)

// 🎯 ProductOperation is one exported (or skipped) product
type ProductOperation struct {
	Product       string // Display name
	ArticleNumber string // Article number
	ProductType   string // Resolved product type
	Status        string // Skip reason or "exported"
	IsExported    bool   // Whether a JSON-LD document was produced
	HasGPSR       bool   // Whether a GPSR block was rendered
	Fields        int    // Number of fields added
	SkippedFields int    // Number of fields skipped
}

// 📦 RunOperation describes one export run
type RunOperation struct {
	RunID    string // Run id
	Source   string // Where the records came from
	Products int    // Number of records in the run
}

// 🎯 Logger prints export progress to a console and mirrors it to zerolog
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentRun *RunOperation
	operations []ProductOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatProductOperation formats a product operation for display
func (l *Logger) formatProductOperation(op ProductOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsExported && op.HasGPSR:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsExported:
		symbol = '•'
		symbolColor = color.FgCyan
	case op.HasGPSR:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '✗'
		symbolColor = color.FgRed
	}

	name := op.Product
	if name == "" {
		name = op.ArticleNumber
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", productIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, name),
		color.New(color.FgBlue).Sprint(fmt.Sprintf("%-*s", typeWidth, op.ProductType)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogProductOperation logs one product of the current run
func (l *Logger) LogProductOperation(ctx context.Context, op ProductOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatProductOperation(op))

	l.zlog.Info().
		Str("product", op.Product).
		Str("artnr", op.ArticleNumber).
		Str("product_type", op.ProductType).
		Str("status", op.Status).
		Bool("exported", op.IsExported).
		Bool("gpsr", op.HasGPSR).
		Int("fields", op.Fields).
		Int("skipped_fields", op.SkippedFields).
		Msg("product exported")
}

// 📝 StartRun starts a new export run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentRun = &op
	l.operations = nil

	fmt.Fprintf(l.console, "[exporting %s]\n",
		color.New(color.FgCyan).Sprint(op.Source))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(fmt.Sprintf("%d products", op.Products)),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.RunID))

	l.zlog.Info().
		Str("run_id", op.RunID).
		Str("source", op.Source).
		Int("products", op.Products).
		Msg("starting export run")
}

// 📝 EndRun ends the current export run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRun == nil {
		return
	}

	exported := 0
	for _, op := range l.operations {
		if op.IsExported {
			exported++
		}
	}

	l.zlog.Info().
		Str("run_id", l.currentRun.RunID).
		Int("products", len(l.operations)).
		Int("exported", exported).
		Msg("export run complete")

	l.currentRun = nil
	l.operations = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	title := color.New(color.Bold, color.FgCyan).Sprint("bsvp-export")
	fmt.Fprintf(l.console, "\n%s %s\n\n", title, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}

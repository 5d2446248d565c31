// Copyright 2025 walteh LLC
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
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 15 // Width for status text
)

// 🏷️ Outcome is what happened to a file
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeChanged
	OutcomeWouldChange
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChanged:
		return "cleaned"
	case OutcomeWouldChange:
		return "would clean"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "no markers"
	}
}

// 🎯 FileOperation represents the outcome for a single file
type FileOperation struct {
	Path         string  // File path
	Outcome      Outcome // What happened
	Spans        int     // Number of spans removed (or that would be)
	RemovedLines int     // Number of lines removed, markers included
	Unterminated int     // Line of an unclosed START, 0 if none
	Reason       string  // Why the file was skipped
	Err          error   // Why the file failed
}

// 📊 Summary is the final tally of a run
type Summary struct {
	Scanned      int  // Files whose content was scanned
	Changed      int  // Files rewritten, or that would be in a dry run
	Spans        int  // Spans removed across all files
	Errors       int  // Files that failed to read or write
	Unterminated int  // Files with an unclosed START
	DryRun       bool // Nothing was written
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	verbose bool
	mu      sync.Mutex
}

// 🏭 New creates a new logger writing user facing lines to console
// and structured records to the logger carried by ctx
func New(ctx context.Context, console io.Writer, verbose bool) *Logger {
	return &Logger{
		zlog:    *zerolog.Ctx(ctx),
		console: console,
		verbose: verbose,
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

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Outcome {
	case OutcomeChanged:
		symbol = '✓'
		symbolColor = color.FgGreen
	case OutcomeWouldChange:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case OutcomeFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case OutcomeSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	detail := op.Outcome.String()
	switch {
	case op.Spans > 0:
		detail = fmt.Sprintf("%d span(s), %d line(s)", op.Spans, op.RemovedLines)
	case op.Reason != "":
		detail = op.Reason
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", statusWidth, op.Outcome.String())),
		detail)
}

// 📝 LogFileOperation logs the outcome for one file.
// Changed and failed files always reach the console, the rest only when verbose.
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := l.zlog.Info()
	switch op.Outcome {
	case OutcomeFailed:
		event = l.zlog.Warn().Err(op.Err)
	case OutcomeSkipped, OutcomeUnchanged:
		event = l.zlog.Debug()
	}
	event.
		Str("file", op.Path).
		Str("outcome", op.Outcome.String()).
		Int("spans", op.Spans).
		Int("removed_lines", op.RemovedLines).
		Str("reason", op.Reason).
		Msg("file processed")

	switch op.Outcome {
	case OutcomeChanged, OutcomeWouldChange:
		fmt.Fprintln(l.console, l.formatFileOperation(op))
	case OutcomeFailed:
		fmt.Fprintln(l.console, l.formatFileOperation(op))
		l.printer(pterm.Warning).Printfln("skipping %s: %v", op.Path, op.Err)
	default:
		if l.verbose {
			fmt.Fprintln(l.console, l.formatFileOperation(op))
		}
	}

	if op.Unterminated > 0 && l.verbose {
		l.printer(pterm.Warning).Printfln("unterminated marker in %s at line %d", op.Path, op.Unterminated)
	}
}

// 📝 LogDiff prints the lines a rewrite removes
func (l *Logger) LogDiff(ctx context.Context, path string, before, after []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s %s\n", color.New(color.Bold).Sprint("---"), path)
	fmt.Fprint(l.console, FormatDiff(before, after))
}

// 📝 LogSummary prints the final tally
func (l *Logger) LogSummary(ctx context.Context, s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	verb := "changed"
	if s.DryRun {
		verb = "would change"
	}
	msg := fmt.Sprintf("%d file(s) scanned, %d file(s) %s, %d span(s) removed", s.Scanned, s.Changed, verb, s.Spans)
	if s.Errors > 0 {
		msg += fmt.Sprintf(", %d error(s)", s.Errors)
	}

	if s.Errors > 0 {
		l.printer(pterm.Warning).Println(msg)
	} else {
		l.printer(pterm.Success).Println(msg)
	}

	l.zlog.Info().
		Int("scanned", s.Scanned).
		Int("changed", s.Changed).
		Int("spans", s.Spans).
		Int("errors", s.Errors).
		Int("unterminated", s.Unterminated).
		Bool("dry_run", s.DryRun).
		Msg("run complete")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("cleanmarkers")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warningf prints a warning and mirrors it to zerolog
func (l *Logger) Warningf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Warning).Println(msg)
	l.zlog.Warn().Msg(msg)
}

// 📝 Errorf prints an error and mirrors it to zerolog
func (l *Logger) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Error).Println(msg)
	l.zlog.Error().Msg(msg)
}

func (l *Logger) printer(base pterm.PrefixPrinter) *pterm.PrefixPrinter {
	return base.WithWriter(l.console)
}

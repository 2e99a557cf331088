// Package ui provides terminal output for the gemini-zotero CLI.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
)

// Options configures a UI.
type Options struct {
	JSON    bool
	NoColor bool
	Verbose bool
	Out     io.Writer
	Err     io.Writer
}

// UI provides user-friendly output utilities.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	jsonMode bool
	verbose  bool
	progress *mpb.Progress
}

// NewUI creates a new UI instance.
func NewUI(opts Options) *UI {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.NoColor {
		color.NoColor = true
	}
	return &UI{
		out:      opts.Out,
		errOut:   opts.Err,
		noColor:  opts.NoColor,
		jsonMode: opts.JSON,
		verbose:  opts.Verbose,
	}
}

// JSON reports whether output is machine readable.
func (ui *UI) JSON() bool {
	return ui.jsonMode
}

// Out is the writer for primary output.
func (ui *UI) Out() io.Writer {
	return ui.out
}

// Close waits for any progress bars to finish.
func (ui *UI) Close() {
	if ui.progress == nil {
		return
	}
	if IsTerminal() {
		ui.progress.Wait()
	} else {
		ui.progress.Shutdown()
	}
	ui.progress = nil
}

func (ui *UI) line(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(w, "%s %s\n", symbol, msg)
		return
	}
	color.New(attr).Fprintf(w, "%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.line(ui.out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message to stderr. Errors are shown in JSON mode too.
func (ui *UI) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ui.noColor || ui.jsonMode {
		fmt.Fprintf(ui.errOut, "✗ %s\n", msg)
		return
	}
	color.New(color.FgRed).Fprintf(ui.errOut, "✗ %s\n", msg)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.line(ui.out, color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.line(ui.out, color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.line(ui.out, color.FgBlue, "→", format, args...)
}

// Debug prints a message only in verbose mode.
func (ui *UI) Debug(format string, args ...interface{}) {
	if !ui.verbose {
		return
	}
	ui.line(ui.errOut, color.FgHiBlack, "·", format, args...)
}

// Section displays a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, "\n%s\n%s\n\n", title, strings.Repeat("=", len([]rune(title))))
}

// Print writes raw text to the primary output.
func (ui *UI) Print(text string) {
	fmt.Fprintln(ui.out, text)
}

// PrintJSON writes v as indented JSON.
func (ui *UI) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table prints a formatted table.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len([]rune(header))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	border := func() string {
		var b strings.Builder
		b.WriteString("+")
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteString("+")
		}
		return b.String()
	}
	row := func(cells []string) string {
		var b strings.Builder
		b.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(&b, " %-*s |", w, cell)
		}
		return b.String()
	}

	header := row(headers)
	if !ui.noColor {
		header = color.New(color.FgCyan, color.Bold).Sprint(header)
	}
	fmt.Fprintln(ui.out, border())
	fmt.Fprintln(ui.out, header)
	fmt.Fprintln(ui.out, border())
	for _, r := range rows {
		fmt.Fprintln(ui.out, row(r))
	}
	fmt.Fprintln(ui.out, border())
}

// IsTerminal checks if output is going to a terminal.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

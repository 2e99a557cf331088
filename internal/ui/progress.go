package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// ProgressBar renders percentage progress of a single workflow.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a 0-100 progress bar. It returns nil in JSON mode;
// all methods accept a nil receiver.
func (ui *UI) NewProgressBar(description string) *ProgressBar {
	if ui.jsonMode {
		return nil
	}
	return newProgressBar(ui.errOut, description)
}

func newProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Update moves the bar to percent and shows step as its description.
func (p *ProgressBar) Update(step string, percent int) {
	if p == nil {
		return
	}
	p.bar.Describe(step)
	_ = p.bar.Set(percent)
}

// Func adapts the bar to a progress callback.
func (p *ProgressBar) Func() domain.ProgressFunc {
	return p.Update
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// Spinner shows indeterminate progress while a single request runs.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message. It returns nil in
// JSON mode or when stdout is not a terminal.
func (ui *UI) NewSpinner(message string) *Spinner {
	if ui.jsonMode || !IsTerminal() {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = ui.errOut
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if s != nil {
		s.spinner.Stop()
	}
}

// UpdateMessage replaces the message of a running spinner.
func (s *Spinner) UpdateMessage(message string) {
	if s == nil {
		return
	}
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}

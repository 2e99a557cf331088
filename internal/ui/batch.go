package ui

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// BatchProgress renders the event stream of a batch run.
type BatchProgress struct {
	ui  *UI
	bar *mpb.Bar
}

// NewBatchProgress adds a bar for total documents.
func (ui *UI) NewBatchProgress(name string, total int) *BatchProgress {
	bp := &BatchProgress{ui: ui}
	if ui.jsonMode {
		return bp
	}
	if ui.progress == nil {
		ui.progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(ui.errOut))
	}
	bp.bar = ui.progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}),
		),
	)
	return bp
}

// Observe consumes events until the channel is closed. Failed documents are
// reported as warnings and still advance the bar.
func (bp *BatchProgress) Observe(events <-chan domain.StreamEvent) {
	for event := range events {
		switch event.Type {
		case domain.EventItemProcessing:
			bp.ui.Debug("%v", event.Payload)
		case domain.EventItemComplete:
			bp.increment()
		case domain.EventError:
			if event.Name != "" {
				bp.increment()
				bp.ui.Warning("%s: %v", event.Name, event.Payload)
			} else {
				bp.ui.Error("%v", event.Payload)
			}
		case domain.EventComplete:
			bp.ui.Debug("%v", event.Payload)
		}
	}
	if bp.bar != nil {
		bp.bar.Abort(false)
	}
}

func (bp *BatchProgress) increment() {
	if bp.bar != nil {
		bp.bar.Increment()
	}
}

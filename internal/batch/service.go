// Package batch analyzes several documents one after another with pacing
// and caller-side retry.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/llm"
	"github.com/replynow20/gemini-zotero/internal/observability"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

// ItemResult is the outcome of one document.
type ItemResult struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Template string   `json:"template"`
	Text     string   `json:"text,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Error    string   `json:"error,omitempty"`
	Err      error    `json:"-"`
}

// Sink receives every successful result.
type Sink interface {
	Write(ctx context.Context, result ItemResult) error
}

// Summary is returned once the run finishes.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Results   []ItemResult  `json:"results"`
}

// Options configures a Service.
type Options struct {
	// Delay is the minimum spacing between two documents.
	Delay  time.Duration
	Retry  llm.RetryConfig
	Sink   Sink
	Logger *observability.Logger
}

// Service orchestrates a batch run
type Service struct {
	analyzer domain.Analyzer
	delay    time.Duration
	retry    llm.RetryConfig
	sink     Sink
	logger   *observability.Logger
}

// NewService creates a new batch service
func NewService(analyzer domain.Analyzer, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = llm.DefaultRetryConfig()
	}
	return &Service{
		analyzer: analyzer,
		delay:    opts.Delay,
		retry:    opts.Retry,
		sink:     opts.Sink,
		logger:   logger.WithComponent("batch"),
	}
}

// Process analyzes items sequentially with tmpl. Individual failures are
// reported as events and counted; Process only fails when no item succeeded
// or ctx is cancelled.
func (s *Service) Process(ctx context.Context, items []domain.DocumentSource, tmpl templates.Template, eventCh chan<- domain.StreamEvent) (*Summary, error) {
	if len(items) == 0 {
		return nil, domain.ValidationError("no documents to analyze", nil)
	}
	startTime := time.Now()
	logger := s.logger.WithContext(ctx)
	total := len(items)

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Total:     total,
		Payload:   fmt.Sprintf("Starting analysis of %d documents with %s", total, tmpl.ID),
		Timestamp: time.Now(),
	})

	limit := rate.Inf
	if s.delay > 0 {
		limit = rate.Every(s.delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	summary := &Summary{Total: total, Results: make([]ItemResult, 0, total)}
	var lastErr error

	for i, item := range items {
		if err := limiter.Wait(ctx); err != nil {
			s.emitError(eventCh, i, item.Name(), err)
			return summary, ctxErr(ctx, err)
		}

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventItemProcessing,
			Index:     i + 1,
			Total:     total,
			Name:      item.Name(),
			Payload:   fmt.Sprintf("[%d/%d] %s", i+1, total, item.Name()),
			Timestamp: time.Now(),
		})
		logger.Info().Int("index", i+1).Int("total", total).Str("document", item.Name()).Msg("Analyzing document")

		result := s.processItem(ctx, i, item, tmpl)
		if result.Err != nil {
			result.Error = domain.UserMessage(result.Err)
		}
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			if ctx.Err() != nil {
				s.emitError(eventCh, i, item.Name(), ctx.Err())
				return summary, ctx.Err()
			}
			summary.Failed++
			lastErr = result.Err
			logger.Error().Err(result.Err).Str("document", item.Name()).Msg("Document failed")
			s.emitError(eventCh, i, item.Name(), result.Err)
			continue
		}

		summary.Succeeded++
		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventItemComplete,
			Index:     i + 1,
			Total:     total,
			Name:      item.Name(),
			Payload:   result,
			Timestamp: time.Now(),
		})
	}

	summary.Duration = time.Since(startTime)
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:  domain.EventComplete,
		Total: total,
		Payload: fmt.Sprintf("Analysis complete: %d/%d documents successful in %v",
			summary.Succeeded, total, summary.Duration.Round(time.Millisecond)),
		Timestamp: time.Now(),
	})

	logger.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).Dur("duration", summary.Duration).Msg("Batch complete")

	if summary.Failed == total {
		return summary, fmt.Errorf("all %d documents failed: %w", total, lastErr)
	}
	return summary, nil
}

func (s *Service) processItem(ctx context.Context, index int, item domain.DocumentSource, tmpl templates.Template) ItemResult {
	result := ItemResult{Index: index + 1, Name: item.Name(), Template: tmpl.ID}

	doc, err := item.Load(ctx)
	if err != nil {
		result.Err = err
		return result
	}

	var res *domain.GenerationResult
	err = llm.Retry(ctx, s.retry, s.logger, func(ctx context.Context) error {
		var err error
		res, err = s.analyzer.AnalyzeDocument(ctx, doc, tmpl.Prompt, tmpl.Schema, nil)
		return err
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Text = res.Text
	if tmpl.Structured() {
		result.Tags = templates.ExtractTags(res.Text)
	}

	if s.sink != nil {
		if err := s.sink.Write(ctx, result); err != nil {
			result.Err = err
		}
	}
	return result
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn().Str("type", string(event.Type)).Msg("Event channel full, dropping event")
		}
	}
}

// emitError emits an error event
func (s *Service) emitError(eventCh chan<- domain.StreamEvent, index int, name string, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Index:     index + 1,
		Name:      name,
		Payload:   domain.UserMessage(err),
		Timestamp: time.Now(),
	})
}

// Package insight implements the two-stage visual insight workflow: a
// structured design manifest is derived from the document, then rendered
// into an image.
package insight

import (
	"context"
	"fmt"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/observability"
)

// State is a step of one insight run
type State string

const (
	StateIdle              State = "idle"
	StateAnalyzingDocument State = "analyzing_document"
	StateManifestParsing   State = "manifest_parsing"
	StateImageGeneration   State = "image_generation"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

var transitions = map[State][]State{
	StateIdle:              {StateAnalyzingDocument, StateFailed},
	StateAnalyzingDocument: {StateManifestParsing, StateFailed},
	StateManifestParsing:   {StateImageGeneration, StateFailed},
	StateImageGeneration:   {StateDone, StateFailed},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Client is what the workflow needs from the model client.
type Client interface {
	domain.Analyzer
	domain.ImageGenerator
}

// Options configures a Service.
type Options struct {
	// ImageConfig is sent with stage two; defaults to 16:9 at 2K.
	ImageConfig domain.ImageConfig
	Logger      *observability.Logger
	// OnTransition observes every state change of every run.
	OnTransition func(from, to State)
}

// Service orchestrates the insight workflow. Runs share no mutable state.
type Service struct {
	client       Client
	imageConfig  domain.ImageConfig
	logger       *observability.Logger
	onTransition func(from, to State)
}

// NewService creates a new insight service
func NewService(client Client, opts Options) *Service {
	if opts.ImageConfig.AspectRatio == "" {
		opts.ImageConfig.AspectRatio = "16:9"
	}
	if opts.ImageConfig.ImageSize == "" {
		opts.ImageConfig.ImageSize = "2K"
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		client:       client,
		imageConfig:  opts.ImageConfig,
		logger:       logger.WithComponent("insight"),
		onTransition: opts.OnTransition,
	}
}

type run struct {
	state   State
	observe func(from, to State)
}

func (r *run) advance(to State) {
	if !CanTransition(r.state, to) {
		panic(fmt.Sprintf("insight: illegal transition %s -> %s", r.state, to))
	}
	from := r.state
	r.state = to
	if r.observe != nil {
		r.observe(from, to)
	}
}

// GenerateInsight analyzes doc into a design manifest, then renders it and
// returns the base64 image. Any stage failure aborts the run; there is no
// partial result.
func (s *Service) GenerateInsight(ctx context.Context, doc []byte, style Style, onProgress domain.ProgressFunc) (string, error) {
	logger := s.logger.WithContext(ctx)
	progress := func(step string, percent int) {
		if onProgress != nil {
			onProgress(step, percent)
		}
	}
	r := &run{state: StateIdle, observe: s.onTransition}
	fail := func(err error) (string, error) {
		r.advance(StateFailed)
		logger.Error().Err(err).Str("style", string(style)).Msg("Insight generation failed")
		return "", err
	}

	if len(doc) == 0 {
		return fail(domain.InputUnavailableError("document is empty", nil))
	}
	style, err := ParseStyle(string(style))
	if err != nil {
		return fail(err)
	}

	r.advance(StateAnalyzingDocument)
	progress("Analyzing document...", 20)
	logger.Info().Str("style", string(style)).Int("bytes", len(doc)).Msg("Generating design manifest")

	res, err := s.client.AnalyzeDocument(ctx, doc, DesignPrompt(style), ManifestSchema(), nil)
	if err != nil {
		return fail(fmt.Errorf("design manifest: %w", err))
	}

	r.advance(StateManifestParsing)
	manifest, err := ParseManifest(res.Text)
	if err != nil {
		return fail(err)
	}
	logger.Debug().
		Str("palette", manifest.ColorPalette).
		Strs("style_keywords", manifest.StyleKeywords).
		Int("labels", len(manifest.KeyLabels)).
		Msg("Design manifest parsed")

	r.advance(StateImageGeneration)
	prompt := BuildImagePrompt(manifest)
	progress("Generating image...", 60)

	image, err := s.client.GenerateImage(ctx, prompt, s.imageConfig)
	if err != nil {
		return fail(err)
	}

	r.advance(StateDone)
	progress("Visual generated successfully!", 100)
	logger.Info().Int("image_bytes", len(image)).Msg("Insight generated")
	return image, nil
}

// Package llm implements the Gemini REST pipeline: endpoint handling, the
// Files API upload protocol and content generation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/observability"
)

const (
	// DefaultModel is the text/multimodal model used when none is configured.
	DefaultModel = "gemini-3-flash-preview"
	// DefaultImageModel renders images for GenerateImage.
	DefaultImageModel = "gemini-3-pro-image-preview"

	// UploadThreshold is the payload size at which documents are sent through
	// the Files API instead of inline.
	UploadThreshold = 20 * 1024 * 1024

	defaultTimeout = 5 * time.Minute
)

// Config holds the settings needed to construct a Client.
type Config struct {
	APIKey     string
	Model      string
	Endpoint   string
	ProxyURL   string
	Timeout    time.Duration
	Generation *domain.GenerationParameters
	Upload     UploadOptions
	ImageModel string

	// HTTPClient overrides the client built from ProxyURL and Timeout.
	HTTPClient *http.Client
	Logger     *observability.Logger
}

// Client talks to the Gemini REST API. It is safe for concurrent use; the
// model used by a call is fixed when the call starts.
type Client struct {
	apiKey     string
	baseURL    string
	uploadURL  string
	params     domain.GenerationParameters
	upload     UploadOptions
	imageModel string
	httpClient *http.Client
	logger     *observability.Logger

	mu    sync.RWMutex
	model string
}

// Request is one generateContent call.
type Request struct {
	// Model overrides the client's default model for this call only.
	Model string
	Turns []domain.Turn
	// Schema switches the call to structured JSON output.
	Schema domain.Schema
	// Image requests TEXT and IMAGE modalities with this image config.
	Image *domain.ImageConfig
}

// NewClient creates a new Gemini client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ConfigurationError("Gemini API key is not set", nil)
	}

	params := domain.DefaultGenerationParameters()
	if cfg.Generation != nil {
		params = *cfg.Generation
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		var err error
		httpClient, err = NewHTTPClient(cfg.ProxyURL, timeout)
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	base := NormalizeEndpoint(cfg.Endpoint)
	root, version, _ := splitVersion(base)

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		uploadURL:  root + "/upload/" + version + "/files",
		params:     params,
		upload:     cfg.Upload.withDefaults(),
		imageModel: imageModel,
		httpClient: httpClient,
		logger:     logger.WithComponent("llm"),
		model:      model,
	}, nil
}

// Model returns the default model.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel changes the default model for subsequent calls.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// BaseURL returns the normalized endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ShouldUpload reports whether a payload of size bytes must go through the
// Files API. Payloads of exactly UploadThreshold bytes are uploaded.
func ShouldUpload(size int) bool {
	return size >= UploadThreshold
}

// AnalyzeDocument sends doc with prompt as a new user turn appended to history.
// Small documents travel inline, large ones are uploaded first.
func (c *Client) AnalyzeDocument(ctx context.Context, doc []byte, prompt string, schema domain.Schema, history []domain.Turn) (*domain.GenerationResult, error) {
	if len(doc) == 0 {
		return nil, domain.InputUnavailableError("document is empty", nil)
	}

	var docPart domain.Part
	if ShouldUpload(len(doc)) {
		file, err := c.UploadFile(ctx, doc, domain.MIMETypePDF)
		if err != nil {
			return nil, err
		}
		docPart = domain.FileRefPart(file.MIMEType, file.URI)
	} else {
		docPart = domain.InlinePart(domain.MIMETypePDF, doc)
	}

	turns := appendTurn(history, domain.UserTurn(docPart, domain.TextPart(prompt)))
	return c.Generate(ctx, Request{Turns: turns, Schema: schema})
}

// Chat appends a text-only user turn to history and generates a reply.
func (c *Client) Chat(ctx context.Context, prompt string, history []domain.Turn) (*domain.GenerationResult, error) {
	turns := appendTurn(history, domain.UserTurn(domain.TextPart(prompt)))
	return c.Generate(ctx, Request{Turns: turns})
}

// Generate issues one generateContent call. Empty text and no images is a
// valid result, not an error.
func (c *Client) Generate(ctx context.Context, req Request) (*domain.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = c.Model()
	}

	body := generateRequest{Contents: toWireContents(req.Turns)}
	if req.Image != nil {
		body.GenerationConfig = generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        req.Image,
		}
	} else {
		body.GenerationConfig = samplingConfig(c.params)
		if req.Schema != nil {
			body.GenerationConfig.ResponseMimeType = "application/json"
			body.GenerationConfig.ResponseSchema = req.Schema
		}
	}

	c.logger.WithContext(ctx).Debug().
		Str("model", model).
		Int("turns", len(req.Turns)).
		Bool("structured", req.Schema != nil).
		Bool("image", req.Image != nil).
		Msg("Generating content")

	resp, err := c.postJSON(ctx, c.withKey(c.baseURL+"/models/"+model+":generateContent"), body, nil)
	if err != nil {
		return nil, err
	}

	var envelope generateResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, domain.ProtocolError("malformed generateContent response", err)
	}

	parts := envelope.candidateParts()
	return &domain.GenerationResult{
		Text:   domain.FirstText(parts),
		Images: domain.InlineImages(parts),
		Raw:    resp.Body,
	}, nil
}

// GenerateImage renders prompt with the image model and returns the first
// inline image as base64. The client's default model is left untouched.
func (c *Client) GenerateImage(ctx context.Context, prompt string, cfg domain.ImageConfig) (string, error) {
	if cfg.AspectRatio == "" && cfg.ImageSize == "" {
		cfg = domain.ImageConfig{AspectRatio: "16:9", ImageSize: "2K"}
	}

	resp, err := c.Generate(ctx, Request{
		Model: c.imageModel,
		Turns: []domain.Turn{domain.UserTurn(domain.TextPart(prompt))},
		Image: &cfg,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	if !resp.HasImages() {
		return "", domain.ArtifactMissingError("No image data received from Gemini", nil)
	}
	return resp.Images[0], nil
}

func appendTurn(history []domain.Turn, turn domain.Turn) []domain.Turn {
	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	return append(turns, turn)
}

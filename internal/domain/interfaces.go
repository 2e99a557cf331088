package domain

import "context"

// DocumentSource resolves the bytes of the document to analyze
type DocumentSource interface {
	// Load returns the document bytes, or an InputUnavailableError when no document exists
	Load(ctx context.Context) ([]byte, error)

	// Name is a short display name for logs and output files
	Name() string
}

// Analyzer runs a single document analysis exchange
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, doc []byte, prompt string, schema Schema, history []Turn) (*GenerationResult, error)
}

// Chatter runs a text-only conversation exchange
type Chatter interface {
	Chat(ctx context.Context, prompt string, history []Turn) (*GenerationResult, error)
}

// ImageGenerator produces a single base64 image from a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, cfg ImageConfig) (string, error)
}

package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// MIMETypePDF is the MIME type used for every document sent to the model.
const MIMETypePDF = "application/pdf"

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// PartKind tags the variant held by a Part
type PartKind string

const (
	PartText         PartKind = "text"
	PartInlineBinary PartKind = "inline_binary"
	PartFileRef      PartKind = "file_reference"
)

// Part is one unit of conversational content. Exactly the fields of its Kind are meaningful.
type Part struct {
	Kind     PartKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	MIMEType string   `json:"mime_type,omitempty"`
	Data     string   `json:"data,omitempty"`     // base64 payload for PartInlineBinary
	FileURI  string   `json:"file_uri,omitempty"` // server URI for PartFileRef
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// InlinePart base64-encodes raw bytes into an inline binary part.
func InlinePart(mimeType string, raw []byte) Part {
	return Part{
		Kind:     PartInlineBinary,
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}

// FileRefPart references a file previously uploaded to the server.
func FileRefPart(mimeType, uri string) Part {
	return Part{Kind: PartFileRef, MIMEType: mimeType, FileURI: uri}
}

// Turn is one role-tagged message in a conversation
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserTurn builds a user turn from parts.
func UserTurn(parts ...Part) Turn {
	return Turn{Role: RoleUser, Parts: parts}
}

// FileState is the server-side processing state of an uploaded file
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// UploadedFile is the result of a completed upload
type UploadedFile struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	MIMEType string    `json:"mime_type"`
	State    FileState `json:"state"`
}

// GenerationParameters are the sampling settings sent with every text generation
type GenerationParameters struct {
	Temperature     float64 `json:"temperature" yaml:"temperature"`
	TopP            float64 `json:"top_p" yaml:"top_p"`
	TopK            int     `json:"top_k" yaml:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// DefaultGenerationParameters mirrors the plugin's preference defaults.
func DefaultGenerationParameters() GenerationParameters {
	return GenerationParameters{
		Temperature:     1.0,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 8192,
	}
}

// Validate checks the documented ranges.
func (p GenerationParameters) Validate() error {
	if p.Temperature < 0 || p.Temperature > 2 {
		return ConfigurationError("temperature must be within [0, 2]", nil)
	}
	if p.TopP < 0 || p.TopP > 1 {
		return ConfigurationError("top_p must be within [0, 1]", nil)
	}
	if p.TopK < 1 {
		return ConfigurationError("top_k must be positive", nil)
	}
	if p.MaxOutputTokens < 1 {
		return ConfigurationError("max_output_tokens must be positive", nil)
	}
	return nil
}

// ImageConfig controls the rendered image of an image-generation call
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty" yaml:"aspect_ratio"`
	ImageSize   string `json:"imageSize,omitempty" yaml:"image_size"`
}

// Schema is a JSON schema in the provider's structured-output dialect.
type Schema map[string]any

// GenerationResult is returned once per generation call
type GenerationResult struct {
	Text   string          `json:"text"`
	Images []string        `json:"images,omitempty"` // base64, nil when the response carried none
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// HasImages reports whether the response carried at least one inline image.
func (r *GenerationResult) HasImages() bool {
	return r != nil && len(r.Images) > 0
}

// ProgressFunc receives human-readable progress steps with a 0-100 percentage.
type ProgressFunc func(step string, percent int)

// EventType represents the type of stream event
type EventType string

const (
	EventStart          EventType = "start"
	EventItemProcessing EventType = "item_processing"
	EventItemComplete   EventType = "item_complete"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// StreamEvent represents an event emitted during a batch run
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Index     int         `json:"index,omitempty"`
	Total     int         `json:"total,omitempty"`
	Name      string      `json:"name,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

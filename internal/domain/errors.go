package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeConfiguration    ErrorType = "configuration"
	ErrorTypeInputUnavailable ErrorType = "input_unavailable"
	ErrorTypeTransport        ErrorType = "transport"
	ErrorTypeProtocol         ErrorType = "protocol"
	ErrorTypeParse            ErrorType = "parse"
	ErrorTypeArtifactMissing  ErrorType = "artifact_missing"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeIO               ErrorType = "io"
)

// StatusKind groups HTTP failures by who has to act on them.
type StatusKind string

const (
	StatusKindRequest  StatusKind = "request"  // fix the request
	StatusKindAuth     StatusKind = "auth"     // fix the credential
	StatusKindQuota    StatusKind = "quota"    // back off and retry
	StatusKindUpstream StatusKind = "upstream" // provider side, retryable
	StatusKindUnknown  StatusKind = "unknown"
)

// StatusDescriptor is the stable classification of a non-2xx HTTP status.
type StatusDescriptor struct {
	Status  int
	Kind    StatusKind
	Message string
}

// Retryable reports whether a caller may reasonably retry the same request.
func (d StatusDescriptor) Retryable() bool {
	return d.Kind == StatusKindQuota || d.Kind == StatusKindUpstream
}

func (d StatusDescriptor) String() string {
	return d.Message
}

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error

	// Set for transport errors only.
	Status         int
	Classification StatusDescriptor
	Detail         string
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s. Details: %s", msg, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ConfigurationError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfiguration, message, err)
}

func InputUnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeInputUnavailable, message, err)
}

func ProtocolError(message string, err error) *DomainError {
	return NewError(ErrorTypeProtocol, message, err)
}

func ParseError(message string, err error) *DomainError {
	return NewError(ErrorTypeParse, message, err)
}

func ArtifactMissingError(message string, err error) *DomainError {
	return NewError(ErrorTypeArtifactMissing, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// TransportError builds the error raised for any non-2xx response.
func TransportError(desc StatusDescriptor, detail string) *DomainError {
	return &DomainError{
		Type:           ErrorTypeTransport,
		Message:        "Gemini API Error: " + desc.Message,
		Status:         desc.Status,
		Classification: desc,
		Detail:         detail,
	}
}

// TypeOf returns the type of the first DomainError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsType reports whether err carries a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// Retryable reports whether err is a transport failure the caller may retry.
func Retryable(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Type == ErrorTypeTransport && de.Classification.Retryable()
}

// UserMessage renders err for display to an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}
	switch de.Type {
	case ErrorTypeConfiguration:
		return "Please configure your Gemini API key first (" + de.Message + ")"
	case ErrorTypeInputUnavailable:
		return "No PDF document found: " + de.Message
	case ErrorTypeTransport:
		if de.Detail != "" {
			return de.Message + ". Details: " + de.Detail
		}
		return de.Message
	default:
		if de.Err != nil {
			return fmt.Sprintf("%s: %v", de.Message, de.Err)
		}
		return de.Message
	}
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

const (
	defaultPollInterval      = 2 * time.Second
	defaultProcessingTimeout = 60 * time.Second
	defaultDisplayName       = "document.pdf"
)

// UploadOptions controls the Files API upload.
type UploadOptions struct {
	// PollInterval is the wait between status polls while the file is PROCESSING.
	PollInterval time.Duration
	// ProcessingTimeout bounds the poll loop, measured from its first poll.
	ProcessingTimeout time.Duration
	DisplayName       string
}

// DefaultUploadOptions returns the 2s / 60s polling policy.
func DefaultUploadOptions() UploadOptions {
	return UploadOptions{
		PollInterval:      defaultPollInterval,
		ProcessingTimeout: defaultProcessingTimeout,
		DisplayName:       defaultDisplayName,
	}
}

func (o UploadOptions) withDefaults() UploadOptions {
	d := DefaultUploadOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.ProcessingTimeout <= 0 {
		o.ProcessingTimeout = d.ProcessingTimeout
	}
	if o.DisplayName == "" {
		o.DisplayName = d.DisplayName
	}
	return o
}

// UploadFile stores data server-side in three steps: start a resumable
// session, transfer the whole payload in one finalizing request, then poll
// the file status until it leaves PROCESSING.
func (c *Client) UploadFile(ctx context.Context, data []byte, mimeType string) (*domain.UploadedFile, error) {
	logger := c.logger.WithContext(ctx).WithOperation("upload")
	logger.Info().Int("bytes", len(data)).Str("mime_type", mimeType).Msg("Uploading document via Files API")

	var start uploadStartRequest
	start.File.DisplayName = c.upload.DisplayName

	resp, err := c.postJSON(ctx, c.withKey(c.uploadURL), start, map[string]string{
		"X-Goog-Upload-Protocol":              "resumable",
		"X-Goog-Upload-Command":               "start",
		"X-Goog-Upload-Header-Content-Length": strconv.Itoa(len(data)),
		"X-Goog-Upload-Header-Content-Type":   mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("initiate upload: %w", err)
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return nil, domain.ProtocolError("Failed to get upload URL from Files API", nil)
	}

	resp, err = c.dispatch(ctx, dispatchRequest{
		method: http.MethodPost,
		url:    sessionURL,
		body:   data,
		headers: map[string]string{
			"X-Goog-Upload-Offset":  "0",
			"X-Goog-Upload-Command": "upload, finalize",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transfer upload: %w", err)
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(resp.Body, &uploaded); err != nil {
		return nil, domain.ProtocolError("malformed upload response", err)
	}
	if uploaded.File.Name == "" {
		return nil, domain.ProtocolError("upload response carried no file name", nil)
	}

	logger.Debug().Str("file", uploaded.File.Name).Str("state", uploaded.File.State).Msg("Transfer finalized")

	status, err := c.awaitReady(ctx, uploaded.File.Name)
	if err != nil {
		return nil, err
	}

	file := &domain.UploadedFile{
		Name:     uploaded.File.Name,
		URI:      status.URI,
		MIMEType: status.MimeType,
		State:    domain.FileState(status.State),
	}
	if file.URI == "" {
		file.URI = uploaded.File.URI
	}
	if file.MIMEType == "" {
		file.MIMEType = mimeType
	}
	if file.URI == "" {
		return nil, domain.ProtocolError("uploaded file has no URI", nil)
	}

	logger.Info().Str("file", file.Name).Str("state", string(file.State)).Msg("Upload ready")
	return file, nil
}

// awaitReady polls the file status immediately and then every poll interval
// while the state is PROCESSING.
func (c *Client) awaitReady(ctx context.Context, name string) (*wireFile, error) {
	statusURL := c.withKey(c.baseURL + "/files/" + strings.TrimPrefix(name, "files/"))
	started := time.Now()

	for {
		resp, err := c.dispatch(ctx, dispatchRequest{method: http.MethodGet, url: statusURL})
		if err != nil {
			return nil, fmt.Errorf("poll upload status: %w", err)
		}

		var status wireFile
		if err := json.Unmarshal(resp.Body, &status); err != nil {
			return nil, domain.ProtocolError("malformed file status response", err)
		}

		switch domain.FileState(status.State) {
		case domain.FileStateFailed:
			return nil, domain.ProtocolError("Gemini failed to process the uploaded file", nil)
		case domain.FileStateProcessing:
		default:
			return &status, nil
		}

		if time.Since(started) >= c.upload.ProcessingTimeout {
			return nil, domain.ProtocolError("File processing timed out", nil)
		}

		timer := time.NewTimer(c.upload.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("await upload processing: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

package llm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fakeFileURI = "https://generativelanguage.googleapis.com/v1beta/files/abc123"

type recordedRequest struct {
	Method string
	Path   string
	Key    string
	Header http.Header
	Body   []byte
}

// fakeGemini simulates the generateContent and Files API endpoints.
type fakeGemini struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	// pollStates are returned by successive status polls; the last one repeats.
	pollStates      []string
	omitSessionURL  bool
	generateStatus  int
	generateBody    string
	generateHandler func(w http.ResponseWriter, r *http.Request)
}

func newFakeGemini(t *testing.T) *fakeGemini {
	t.Helper()
	f := &fakeGemini{
		t:              t,
		pollStates:     []string{"ACTIVE"},
		generateStatus: http.StatusOK,
		generateBody:   `{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGemini) client(t *testing.T, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:     "test-key",
		Endpoint:   f.server.URL,
		HTTPClient: f.server.Client(),
		Upload: UploadOptions{
			PollInterval:      5 * time.Millisecond,
			ProcessingTimeout: 200 * time.Millisecond,
		},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func (f *fakeGemini) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Key:    r.URL.Query().Get("key"),
		Header: r.Header.Clone(),
		Body:   body,
	})
	polls := 0
	for _, req := range f.requests {
		if req.Method == http.MethodGet {
			polls++
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload/v1beta/files":
		if !f.omitSessionURL {
			w.Header().Set("X-Goog-Upload-URL", f.server.URL+"/upload-session/xyz")
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Path == "/upload-session/xyz":
		_, _ = io.WriteString(w, `{"file":{"name":"files/abc123","uri":"`+fakeFileURI+`","mimeType":"application/pdf","state":"PROCESSING"}}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1beta/files/"):
		idx := polls - 1
		if idx >= len(f.pollStates) {
			idx = len(f.pollStates) - 1
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":     "files/abc123",
			"uri":      fakeFileURI,
			"mimeType": "application/pdf",
			"state":    f.pollStates[idx],
		})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":generateContent"):
		if f.generateHandler != nil {
			f.generateHandler(w, r)
			return
		}
		w.WriteHeader(f.generateStatus)
		_, _ = io.WriteString(w, f.generateBody)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGemini) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeGemini) generateRequests() []recordedRequest {
	var out []recordedRequest
	for _, r := range f.recorded() {
		if strings.HasSuffix(r.Path, ":generateContent") {
			out = append(out, r)
		}
	}
	return out
}

// generatePayload decodes a recorded generateContent body into a loose map.
func generatePayload(t *testing.T, r recordedRequest) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &payload))
	return payload
}

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

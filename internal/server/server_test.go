package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/history"
	"github.com/replynow20/gemini-zotero/internal/insight"
	"github.com/replynow20/gemini-zotero/internal/llm"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakePipeline struct {
	analyzeErr error
	chatErr    error
	insightErr error

	lastPrompt  string
	lastSchema  domain.Schema
	lastHistory []domain.Turn
	lastStyle   insight.Style
}

func (f *fakePipeline) AnalyzeDocument(ctx context.Context, doc []byte, prompt string, schema domain.Schema, history []domain.Turn) (*domain.GenerationResult, error) {
	f.lastPrompt, f.lastSchema = prompt, schema
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &domain.GenerationResult{Text: `{"summary":"s","tags":["graphs","Graphs","#gnn"]}`}, nil
}

func (f *fakePipeline) Chat(ctx context.Context, prompt string, history []domain.Turn) (*domain.GenerationResult, error) {
	f.lastPrompt, f.lastHistory = prompt, history
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &domain.GenerationResult{Text: "answer to " + prompt}, nil
}

func (f *fakePipeline) GenerateInsight(ctx context.Context, doc []byte, style insight.Style, onProgress domain.ProgressFunc) (string, error) {
	f.lastStyle = style
	if f.insightErr != nil {
		return "", f.insightErr
	}
	onProgress("Analyzing document...", 20)
	return base64.StdEncoding.EncodeToString(pngHeader), nil
}

func newTestServer(t *testing.T, fake *fakePipeline) *httptest.Server {
	t.Helper()
	reg, err := templates.NewRegistry()
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(Dependencies{
		Analyzer:  fake,
		Chatter:   fake,
		Insight:   fake,
		Templates: reg,
		History:   history.NewMemoryStore(10),
	}, Config{MaxUploadBytes: 1 << 20}))
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "paper.pdf")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postForm(t *testing.T, url string, file []byte, fields map[string]string) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, file, fields)
	resp, err := http.Post(url, contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestListTemplates(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp, err := http.Get(srv.URL + "/v1/templates")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := decode[struct {
		Templates []TemplateDTO `json:"templates"`
	}](t, resp)
	require.NotEmpty(t, body.Templates)
	assert.Equal(t, templates.DefaultID, body.Templates[0].ID)
	assert.True(t, body.Templates[0].Structured)
}

func TestAnalyzeWithTemplate(t *testing.T) {
	fake := &fakePipeline{}
	srv := newTestServer(t, fake)

	resp := postForm(t, srv.URL+"/v1/analyze", []byte("%PDF-1.7 body"), map[string]string{"template": "deep_analysis"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[AnalyzeResponseDTO](t, resp)
	assert.Equal(t, "deep_analysis", body.Template)
	assert.Equal(t, []string{"graphs", "gnn"}, body.Tags)
	assert.NotNil(t, fake.lastSchema)
}

func TestAnalyzeWithFreePrompt(t *testing.T) {
	fake := &fakePipeline{}
	srv := newTestServer(t, fake)

	resp := postForm(t, srv.URL+"/v1/analyze", []byte("%PDF-1.7"), map[string]string{"prompt": "List the datasets."})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[AnalyzeResponseDTO](t, resp)
	assert.Empty(t, body.Template)
	assert.Empty(t, body.Tags)
	assert.Equal(t, "List the datasets.", fake.lastPrompt)
	assert.Nil(t, fake.lastSchema)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})

	tests := []struct {
		name string
		file []byte
	}{
		{name: "missing file", file: nil},
		{name: "not a pdf", file: []byte("just text")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postForm(t, srv.URL+"/v1/analyze", tt.file, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.NotEmpty(t, body.Error.Type)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestAnalyzeMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		errType  string
		upstream int
	}{
		{name: "quota", err: domain.TransportError(llm.MapStatus(429, ""), "slow down"), status: http.StatusTooManyRequests, errType: "transport", upstream: 429},
		{name: "auth", err: domain.TransportError(llm.MapStatus(401, ""), ""), status: http.StatusBadGateway, errType: "transport", upstream: 401},
		{name: "protocol", err: domain.ProtocolError("File processing timed out", nil), status: http.StatusBadGateway, errType: "protocol"},
		{name: "parse", err: domain.ParseError("bad manifest", nil), status: http.StatusUnprocessableEntity, errType: "parse"},
		{name: "configuration", err: domain.ConfigurationError("Gemini API key is not set", nil), status: http.StatusInternalServerError, errType: "configuration"},
		{name: "deadline", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, errType: "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakePipeline{analyzeErr: tt.err})
			resp := postForm(t, srv.URL+"/v1/analyze", []byte("%PDF-1.7"), nil)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode[errorBody](t, resp)
			assert.Equal(t, tt.errType, body.Error.Type)
			assert.Equal(t, tt.upstream, body.Error.Status)
		})
	}
}

func TestChatKeepsHistory(t *testing.T) {
	fake := &fakePipeline{}
	srv := newTestServer(t, fake)

	send := func(session, prompt string) ChatResponseDTO {
		payload, _ := json.Marshal(ChatRequestDTO{Session: session, Prompt: prompt})
		resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[ChatResponseDTO](t, resp)
	}

	first := send("", "What is the main claim?")
	require.NotEmpty(t, first.Session)
	assert.Empty(t, fake.lastHistory)

	second := send(first.Session, "And the evidence?")
	assert.Equal(t, "answer to And the evidence?", second.Text)
	require.Len(t, fake.lastHistory, 2)
	assert.Equal(t, domain.RoleModel, fake.lastHistory[1].Role)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/chat/"+first.Session, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	send(first.Session, "Start over")
	assert.Empty(t, fake.lastHistory)
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})

	for _, body := range []string{`{not json`, `{"prompt":"  "}`} {
		resp, err := http.Post(srv.URL+"/v1/chat", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestInsight(t *testing.T) {
	fake := &fakePipeline{}
	srv := newTestServer(t, fake)

	resp := postForm(t, srv.URL+"/v1/insight", []byte("%PDF-1.7"), map[string]string{"style": "flowchart"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[InsightResponseDTO](t, resp)
	assert.Equal(t, "Flowchart", body.Style)
	assert.Equal(t, "image/png", body.MIMEType)
	assert.Equal(t, insight.StyleFlowchart, fake.lastStyle)
	assert.NotEmpty(t, body.ImageBase64)
}

func TestInsightErrors(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp := postForm(t, srv.URL+"/v1/insight", []byte("%PDF-1.7"), map[string]string{"style": "watercolor"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv = newTestServer(t, &fakePipeline{insightErr: domain.ArtifactMissingError("No image data received from Gemini", nil)})
	resp = postForm(t, srv.URL+"/v1/insight", []byte("%PDF-1.7"), nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "artifact_missing", body.Error.Type)
}

func TestStatusForUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.IOError("disk", nil)))
}

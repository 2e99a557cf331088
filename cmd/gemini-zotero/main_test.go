package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3, 4}

// isolate points configuration at a fresh directory and clears provider env.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_API_ENDPOINT", "GEMINI_PROXY_URL", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	t.Setenv("HISTORY_PATH", filepath.Join(dir, "history.json"))
	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\nfake paper"), 0o600))
	return path
}

// fakeGemini answers generateContent calls and records their bodies.
type fakeGemini struct {
	mu     sync.Mutex
	bodies []map[string]any
	paths  []string
	reply  func(path string) string
}

func (f *fakeGemini) start(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, f.reply(r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_API_ENDPOINT", srv.URL+"/v1beta")
}

func textReply(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(payload)
}

func TestTemplatesJSON(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "--json", "templates")
	require.NoError(t, err)

	var list []templates.Template
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.NotEmpty(t, list)
	assert.Equal(t, templates.DefaultID, list[0].ID)
}

func TestTemplatesTable(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "quick_summary")
	assert.Contains(t, out, "structured")
}

func TestTemplatesExportRoundTrip(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")

	_, err := runCLI(t, "templates", "export", "deep_analysis", "--file", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: deep_analysis")

	_, err = runCLI(t, "templates", "export", "nope")
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "--json", "version")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, version, v["version"])
}

func TestAnalyzeErrors(t *testing.T) {
	dir := isolate(t)

	_, err := runCLI(t, "analyze", filepath.Join(dir, "missing.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeInputUnavailable))

	_, err = runCLI(t, "analyze", writePDF(t, dir, "paper.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfiguration), "no API key configured")
}

func TestAnalyzeEndToEnd(t *testing.T) {
	dir := isolate(t)
	fake := &fakeGemini{reply: func(string) string {
		return textReply("```json\n{\"summary\":\"A paper.\",\"tags\":[\"transformers\",\"#NLP\"]}\n```")
	}}
	fake.start(t)

	out, err := runCLI(t, "--json", "analyze", writePDF(t, dir, "paper.pdf"), "--template", "quick_summary", "--session", "p1")
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "paper", got.Document)
	assert.Equal(t, "quick_summary", got.Template)
	assert.Equal(t, []string{"transformers", "NLP"}, got.Tags)

	require.Len(t, fake.paths, 1)
	assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", fake.paths[0])
	cfg := fake.bodies[0]["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])

	// the follow-up question sees the saved exchange as history
	_, err = runCLI(t, "chat", "--session", "p1", "Which datasets?")
	require.NoError(t, err)
	require.Len(t, fake.bodies, 2)
	contents := fake.bodies[1]["contents"].([]any)
	assert.Len(t, contents, 3)
}

func TestInsightEndToEnd(t *testing.T) {
	dir := isolate(t)
	manifest := `{"subject_description":"A transformer block","style_keywords":["flat"],"composition":"centered","color_palette":"Nature_Classic","key_labels":["Attention"],"design_rationale":"clarity"}`
	image := base64.StdEncoding.EncodeToString(pngBytes)
	fake := &fakeGemini{reply: func(path string) string {
		if strings.Contains(path, "image") {
			return `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"` + image + `"}}]}}]}`
		}
		return textReply(manifest)
	}}
	fake.start(t)

	output := filepath.Join(dir, "out.png")
	_, err := runCLI(t, "insight", writePDF(t, dir, "paper.pdf"), "--style", "conceptual", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	require.Len(t, fake.paths, 2)
	assert.Contains(t, fake.paths[1], "gemini-3-pro-image-preview")
}

func TestInsightRejectsUnknownStyle(t *testing.T) {
	dir := isolate(t)
	_, err := runCLI(t, "insight", writePDF(t, dir, "paper.pdf"), "--style", "watercolor")
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestBatchEndToEnd(t *testing.T) {
	dir := isolate(t)
	fake := &fakeGemini{reply: func(string) string { return textReply(`{"summary":"ok","tags":["x"]}`) }}
	fake.start(t)

	outDir := filepath.Join(dir, "results")
	out, err := runCLI(t, "--json", "batch",
		writePDF(t, dir, "a.pdf"), filepath.Join(dir, "missing.pdf"), writePDF(t, dir, "b.pdf"),
		"--out-dir", outDir)
	require.NoError(t, err)

	var summary struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	for _, name := range []string{"a.json", "b.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

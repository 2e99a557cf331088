package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestFileSourceLoad(t *testing.T) {
	path := writeFile(t, "Paper.PDF", []byte("%PDF-1.7\n..."))
	src := NewFileSource(path)

	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, "Paper", src.Name())
}

func TestFileSourceUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf")},
		{name: "directory", path: filepath.Join(dir, "folder.pdf")},
		{name: "wrong extension", path: writeFile(t, "notes.txt", []byte("%PDF-1.4"))},
		{name: "not a pdf", path: writeFile(t, "fake.pdf", []byte("<html></html>"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource(tt.path).Load(context.Background())
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeInputUnavailable), err.Error())
			assert.True(t, strings.HasPrefix(domain.UserMessage(err), "No PDF document found"))
		})
	}
}

func TestBytesSource(t *testing.T) {
	src := &BytesSource{Filename: "upload.pdf", Data: []byte("%PDF-1.5")}
	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.5", string(data))
	assert.Equal(t, "upload", src.Name())

	_, err = (&BytesSource{Filename: "x.pdf"}).Load(context.Background())
	assert.True(t, domain.IsType(err, domain.ErrorTypeInputUnavailable))

	_, err = (&BytesSource{Filename: "x.pdf", Data: []byte("GIF89a")}).Load(context.Background())
	assert.True(t, domain.IsType(err, domain.ErrorTypeInputUnavailable))
}

func TestReadAllLimit(t *testing.T) {
	data, err := ReadAll(strings.NewReader("%PDF-1.4 small"), 100)
	require.NoError(t, err)
	assert.Len(t, data, 14)

	_, err = ReadAll(strings.NewReader(strings.Repeat("x", 101)), 100)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

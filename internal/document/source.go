// Package document resolves PDF bytes for the pipeline.
package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// FileSource loads a PDF from the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed document source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file name without extension.
func (s *FileSource) Name() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the document. A missing file, a directory, or anything that is
// not a PDF is reported as an unavailable input.
func (s *FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Path) == "" {
		return nil, domain.InputUnavailableError("no file given", nil)
	}
	if !strings.EqualFold(filepath.Ext(s.Path), ".pdf") {
		return nil, domain.InputUnavailableError(s.Path+" is not a .pdf file", nil)
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.InputUnavailableError(s.Path+" does not exist", nil)
		}
		return nil, domain.IOError("stat "+s.Path, err)
	}
	if info.IsDir() {
		return nil, domain.InputUnavailableError(s.Path+" is a directory", nil)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, domain.IOError("read "+s.Path, err)
	}
	if err := Validate(data); err != nil {
		return nil, domain.InputUnavailableError(s.Path+" is not a PDF document", err)
	}
	return data, nil
}

// BytesSource wraps already loaded bytes, such as an HTTP upload.
type BytesSource struct {
	Filename string
	Data     []byte
}

// Name returns the upload name without extension.
func (s *BytesSource) Name() string {
	return strings.TrimSuffix(s.Filename, filepath.Ext(s.Filename))
}

// Load validates and returns the bytes.
func (s *BytesSource) Load(ctx context.Context) ([]byte, error) {
	if len(s.Data) == 0 {
		return nil, domain.InputUnavailableError("no file uploaded", nil)
	}
	if err := Validate(s.Data); err != nil {
		return nil, domain.InputUnavailableError(s.Filename+" is not a PDF document", err)
	}
	return s.Data, nil
}

// ReadAll reads a PDF from r, refusing more than limit bytes.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, domain.IOError("read document", err)
	}
	if int64(len(data)) > limit {
		return nil, domain.ValidationError("document exceeds the upload limit", nil)
	}
	return data, nil
}

// Validate checks the PDF header.
func Validate(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return errors.New("missing %PDF- header")
	}
	return nil
}

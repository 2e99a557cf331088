package history

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// FileStore keeps every session in a single JSON document on disk.
type FileStore struct {
	mu   sync.Mutex
	path string
	max  int
}

type fileDocument struct {
	Sessions map[string][]domain.Turn `json:"sessions"`
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// created on first write.
func NewFileStore(path string, maxMessages int) (*FileStore, error) {
	if path == "" {
		return nil, domain.ConfigurationError("history.path must not be empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.IOError("create history directory", err)
	}
	return &FileStore{path: path, max: limitOrDefault(maxMessages)}, nil
}

// Load returns the session's turns.
func (s *FileStore) Load(ctx context.Context, key string) ([]domain.Turn, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Sessions[key], nil
}

// Append adds turns to the session and rewrites the file.
func (s *FileStore) Append(ctx context.Context, key string, turns ...domain.Turn) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Sessions[key] = trim(append(doc.Sessions[key], domain.TextOnly(turns)...), s.max)
	return s.write(doc)
}

// Clear removes the session and rewrites the file.
func (s *FileStore) Clear(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Sessions[key]; !ok {
		return nil
	}
	delete(doc.Sessions, key)
	return s.write(doc)
}

// Close is a no-op; every write is flushed immediately.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{Sessions: make(map[string][]domain.Turn)}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, domain.IOError("read history file", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, domain.ParseError("history file is corrupt", err)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string][]domain.Turn)
	}
	return doc, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *FileStore) write(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.IOError("encode history", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return domain.IOError("create temp history file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.IOError("write history file", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.IOError("close history file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return domain.IOError("replace history file", err)
	}
	return nil
}

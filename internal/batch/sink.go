package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// DirSink writes each result into a directory. Structured output is stored
// as <name>.json, anything else as <name>.md. Documents sharing a name within
// one run get a numeric suffix (<name>-2, <name>-3, ...).
type DirSink struct {
	Dir string

	mu    sync.Mutex
	taken map[string]bool
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.IOError("create output directory", err)
	}
	return &DirSink{Dir: dir}, nil
}

// Write stores the result text.
func (s *DirSink) Write(ctx context.Context, result ItemResult) error {
	text := domain.StripCodeFence(result.Text)
	ext := ".md"
	if strings.HasPrefix(text, "{") {
		ext = ".json"
	}
	path := filepath.Join(s.Dir, s.claim(safeName(result.Name))+ext)
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return domain.IOError("write "+path, err)
	}
	return nil
}

// claim reserves a file stem for this run. Stems compare case-insensitively
// so results do not collide on case-folding filesystems.
func (s *DirSink) claim(stem string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken == nil {
		s.taken = make(map[string]bool)
	}

	candidate := stem
	for n := 2; s.taken[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s-%d", stem, n)
	}
	s.taken[strings.ToLower(candidate)] = true
	return candidate
}

// safeName keeps a result name usable as a file name.
func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "document"
	}
	return name
}

// Package history persists conversation turns between chat exchanges.
//
// Stores keep at most a fixed number of turns per session key and only ever
// hold text: binary parts are replaced by placeholders before they are
// written, so a follow-up question never re-sends the document.
package history

import (
	"context"
	"strings"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// DefaultMaxMessages is used when a store is created with a non-positive limit.
const DefaultMaxMessages = 50

// Store defines the conversation history interface.
type Store interface {
	Load(ctx context.Context, key string) ([]domain.Turn, error)
	Append(ctx context.Context, key string, turns ...domain.Turn) error
	Clear(ctx context.Context, key string) error
	Close() error
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return domain.ValidationError("history key must not be empty", nil)
	}
	return nil
}

func limitOrDefault(max int) int {
	if max < 1 {
		return DefaultMaxMessages
	}
	return max
}

// trim keeps the newest max turns, then drops model turns left at the front
// so the kept history still opens with a user turn.
func trim(turns []domain.Turn, max int) []domain.Turn {
	if len(turns) > max {
		turns = append([]domain.Turn(nil), turns[len(turns)-max:]...)
	}
	return fromFirstUser(turns)
}

func fromFirstUser(turns []domain.Turn) []domain.Turn {
	for i, t := range turns {
		if t.Role == domain.RoleUser {
			return turns[i:]
		}
	}
	return turns[:0]
}

package templates

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

const (
	// MaxTags caps the number of tags taken from one response.
	MaxTags      = 10
	maxTagLength = 64
)

var (
	tagStripChars = regexp.MustCompile(`[#@]`)
	tagSeparators = regexp.MustCompile(`[;,]`)
	tagSpaces     = regexp.MustCompile(`\s+`)
)

// ExtractTags reads the "tags" array of a structured response. Entries may
// be strings or {"tag": ...} objects. Tags are cleaned, deduplicated
// case-insensitively and capped at MaxTags. Unparseable text yields nil.
func ExtractTags(text string) []string {
	var payload struct {
		Tags []json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal([]byte(domain.StripCodeFence(text)), &payload); err != nil {
		return nil
	}

	var (
		tags []string
		seen = make(map[string]bool)
	)
	for _, raw := range payload.Tags {
		tag := sanitizeTag(rawTag(raw))
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
		if len(tags) >= MaxTags {
			break
		}
	}
	return tags
}

func rawTag(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if v, ok := obj["tag"]; ok {
			return fmt.Sprint(v)
		}
	}
	return string(raw)
}

func sanitizeTag(tag string) string {
	tag = tagStripChars.ReplaceAllString(tag, "")
	tag = tagSeparators.ReplaceAllString(tag, " ")
	tag = strings.TrimSpace(tagSpaces.ReplaceAllString(tag, " "))
	if runes := []rune(tag); len(runes) > maxTagLength {
		tag = string(runes[:maxTagLength])
	}
	return tag
}

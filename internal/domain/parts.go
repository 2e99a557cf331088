package domain

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFence trims text and removes an optional surrounding ``` or
// ```json fence from structured output.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = leadingFence.ReplaceAllString(text, "")
	return trailingFence.ReplaceAllString(text, "")
}

// FirstText returns the text of the first part carrying non-empty text.
// Later text parts are ignored.
func FirstText(parts []Part) string {
	for _, p := range parts {
		if p.Kind == PartText && p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// InlineImages collects the payload of every inline binary part, in order.
// It returns nil when there are none.
func InlineImages(parts []Part) []string {
	var images []string
	for _, p := range parts {
		if p.Kind == PartInlineBinary && p.Data != "" {
			images = append(images, p.Data)
		}
	}
	return images
}

// FirstInlineImage returns the first inline binary part with a payload.
func FirstInlineImage(parts []Part) (Part, bool) {
	for _, p := range parts {
		if p.Kind == PartInlineBinary && p.Data != "" {
			return p, true
		}
	}
	return Part{}, false
}

// TextOnly returns a copy of turns where every binary part is replaced by a
// short text placeholder. Used before persisting history.
func TextOnly(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		parts := make([]Part, 0, len(t.Parts))
		for _, p := range t.Parts {
			switch p.Kind {
			case PartText:
				parts = append(parts, p)
			case PartInlineBinary:
				parts = append(parts, TextPart("[attached "+p.MIMEType+" document]"))
			case PartFileRef:
				parts = append(parts, TextPart("[uploaded "+p.MIMEType+" document]"))
			}
		}
		out = append(out, Turn{Role: t.Role, Parts: parts})
	}
	return out
}

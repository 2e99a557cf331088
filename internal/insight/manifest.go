package insight

import (
	"encoding/json"
	"strings"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Manifest is the stage one design description of the visual
type Manifest struct {
	SubjectDescription string   `json:"subject_description"`
	StyleKeywords      []string `json:"style_keywords"`
	Composition        string   `json:"composition"`
	ColorPalette       string   `json:"color_palette"`
	KeyLabels          []string `json:"key_labels"`
	DesignRationale    string   `json:"design_rationale,omitempty"`
}

// ParseManifest decodes stage one output. Anything that is not a JSON
// object with a subject description is a ParseError.
func ParseManifest(text string) (*Manifest, error) {
	body := domain.StripCodeFence(text)
	if body == "" {
		return nil, domain.ParseError("Failed to generate structured visual design from the paper: empty response", nil)
	}

	var m Manifest
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, domain.ParseError("Failed to generate structured visual design from the paper", err)
	}
	if strings.TrimSpace(m.SubjectDescription) == "" {
		return nil, domain.ParseError("design manifest has no subject_description", nil)
	}
	return &m, nil
}

// ManifestSchema is the structured-output schema sent with stage one.
func ManifestSchema() domain.Schema {
	stringArray := func(description string) map[string]any {
		return map[string]any{
			"type":        "ARRAY",
			"items":       map[string]any{"type": "STRING"},
			"description": description,
		}
	}
	return domain.Schema{
		"type": "OBJECT",
		"properties": map[string]any{
			"subject_description": map[string]any{"type": "STRING", "description": "The core subject matter to be visualized."},
			"style_keywords":      stringArray("Specific visual style keywords. E.g., '3D cutaway', 'Vector line art', 'Isometric view'"),
			"composition":         map[string]any{"type": "STRING", "description": "Layout and composition instruction."},
			"color_palette": map[string]any{
				"type":        "STRING",
				"enum":        PaletteNames(),
				"description": "The color palette that best fits the paper's domain.",
			},
			"key_labels":       stringArray("Critical text labels to include. Ensure strict spelling accuracy."),
			"design_rationale": map[string]any{"type": "STRING", "description": "Why this design best fits the paper."},
		},
		"required": []string{"subject_description", "style_keywords", "composition", "color_palette", "key_labels"},
	}
}

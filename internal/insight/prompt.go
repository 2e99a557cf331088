package insight

import (
	"fmt"
	"strings"
)

const qualityClause = "High fidelity, 8k resolution, scientific publication quality, clean lines, ambient occlusion lighting, 3D render (Blender/C4D style) or precise vector graphics."

// BuildImagePrompt renders the stage two prompt from a manifest. It never
// fails: unknown palettes fall back and missing labels are stated explicitly.
func BuildImagePrompt(m *Manifest) string {
	labels := "No text labels required."
	if len(m.KeyLabels) > 0 {
		labels = fmt.Sprintf("Include clear, correctly spelled labels: %s. Text should be legible, sans-serif, and integrated into the design.",
			strings.Join(m.KeyLabels, ", "))
	}

	lines := []string{
		"**Subject**: " + m.SubjectDescription,
		"**Style**: " + strings.Join(m.StyleKeywords, ", ") + ".",
		"**Composition**: " + m.Composition,
		"**Color Palette**: " + PaletteInstruction(m.ColorPalette),
		"**Text**: " + labels,
		"**Quality**: " + qualityClause,
	}
	return strings.Join(lines, "\n")
}

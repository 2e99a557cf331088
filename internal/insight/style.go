package insight

import (
	"fmt"
	"strings"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Style selects the visual archetype of a generated insight
type Style string

const (
	StyleSchematic  Style = "Schematic"
	StyleConceptual Style = "Conceptual"
	StyleFlowchart  Style = "Flowchart"
)

// Styles lists the supported styles in display order.
func Styles() []Style {
	return []Style{StyleSchematic, StyleConceptual, StyleFlowchart}
}

// ParseStyle matches s case-insensitively against the supported styles.
func ParseStyle(s string) (Style, error) {
	for _, style := range Styles() {
		if strings.EqualFold(strings.TrimSpace(s), string(style)) {
			return style, nil
		}
	}
	return "", domain.ValidationError(fmt.Sprintf("unknown visual style %q (want Schematic, Conceptual or Flowchart)", s), nil)
}

const designDirectorInstruction = `
You are an expert scientific design director. 
Your task is to analyze this research paper and create a design manifest for a high-quality visualization.
You must output a JSON object adhering to the specified schema.

DETERMINE THE VISUAL STRATEGY:
- For "Schematic": Analyze the paper to decide the best approach. If it's structural/material, use "3D cutaway" or "microscopic view". If it's a multi-stage platform/system, use "clean isometric architecture" or "exploded view". The goal is to explain the mechanism clearly, whether that requires 3D depth or precise structural layout.
- For "Conceptual": Focus on the core innovation/impact. This can be a "Hero Object" (centralized) or a "Conceptual Composition" (metaphorical). Capture the "Big Idea" with high-end Nature/Science cover aesthetics (studio lighting, elegant materials).
- For "Flowchart": Visualize the methodology/process. Avoid simple flat boxes. Represents steps with high-fidelity 3D assets/icons (e.g., specific instruments, data nodes) arranged spirally, linearly, or cyclically. Use spatial layout to guide the flow.

CHOOSE A COLOR PALETTE:
- Nature_Classic: Biology, Ecology, General Science
- Deep_Science: CS, Physics, AI, Deep Learning
- Engineering_Blueprint: Engineering, Systems, Architecture
- Medical_Clean: Medicine, Health, Anatomy
- Warm_Humanities: Social Sciences, History, Arts
`

// DesignPrompt returns the stage one instruction for style.
func DesignPrompt(style Style) string {
	return designDirectorInstruction + "\n\nTarget Visual Style: " + string(style) + "\nGenerate the JSON design manifest now.\n"
}

package insight

// Palette names accepted in the design manifest.
const (
	PaletteNatureClassic        = "Nature_Classic"
	PaletteDeepScience          = "Deep_Science"
	PaletteEngineeringBlueprint = "Engineering_Blueprint"
	PaletteMedicalClean         = "Medical_Clean"
	PaletteWarmHumanities       = "Warm_Humanities"
)

var palettes = map[string]string{
	PaletteNatureClassic:        "Nature magazine style: Deep Teal (#006D77), Soft Gold (#E29578), Off-white background (#EDF6F9). High contrast, professional scientific publication aesthetic.",
	PaletteDeepScience:          "Scientific dark mode: Deep Navy Blue (#0A192F), Neon Cyan accents (#64FFDA), White text. Futuristic but clean data visualization style.",
	PaletteEngineeringBlueprint: "Technical schematic: Blueprint Blue background (#E3F2FD), Navy lines (#1565C0), Slate Grey structural elements. Clean vector precise lines.",
	PaletteMedicalClean:         "Clinical Medical: Sterile White background, Soft Light Blue (#E3F2FD), Vibrant Red arterial accents (#FF5252), Slate text. Clean, sterile, precise, anatomical accuracy.",
	PaletteWarmHumanities:       "Editorial Warm: Cream background (#FDFBF7), Charcoal text (#2D3436), Terracotta (#E07A5F) and Sage Green (#81B29A) accents. Sophisticated and organic.",
}

// PaletteNames lists the manifest palette enum in schema order.
func PaletteNames() []string {
	return []string{
		PaletteNatureClassic,
		PaletteDeepScience,
		PaletteEngineeringBlueprint,
		PaletteMedicalClean,
		PaletteWarmHumanities,
	}
}

// PaletteInstruction resolves a palette name to its color instruction.
// Unknown names fall back to Nature_Classic.
func PaletteInstruction(name string) string {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[PaletteNatureClassic]
}

package templates

import "github.com/replynow20/gemini-zotero/internal/domain"

// DefaultID is the template used when a requested id is unknown.
const DefaultID = "quick_summary"

func tagsProperty() map[string]any {
	return map[string]any{
		"type":        "array",
		"description": "4-10 keywords usable directly as reference-manager tags",
		"minItems":    4,
		"maxItems":    10,
		"items":       map[string]any{"type": "string"},
	}
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func builtins() []Template {
	return []Template{
		{
			ID:          "quick_summary",
			Name:        "Quick Summary",
			Description: "Conclusion first, under 300 words, with keyword tags",
			Prompt: "Extract only the core conclusions and value proposition, ignoring the argument and details. " +
				"Keep it under 300 words. Follow the JSON schema strictly and list 4-10 reusable keyword tags " +
				"(without # or other symbols) in the tags field.",
			Schema: domain.Schema(object([]string{"core_content", "tags"}, map[string]any{
				"core_content": object([]string{"one_sentence_summary", "main_conclusion", "value_proposition"}, map[string]any{
					"one_sentence_summary": str("The main finding in one sentence"),
					"main_conclusion":      str("The authors' final conclusion, without the process"),
					"value_proposition":    str("The paper's biggest contribution or innovation"),
				}),
				"tags": tagsProperty(),
			})),
		},
		{
			ID:          "standard_analysis",
			Name:        "Standard Reading",
			Description: "Covers the full arc of the paper and how the authors argue, with tags",
			Prompt: "Provide a complete, logically rigorous summary that makes clear how the authors build their argument. " +
				"Follow the JSON schema strictly and list 4-10 reusable topic tags (without # or other symbols) in the tags field.",
			Schema: domain.Schema(object([]string{
				"executive_summary", "problem_statement", "methodology_overview", "key_findings",
				"structure_outline", "conclusion_and_implications", "tags",
			}, map[string]any{
				"executive_summary": str("A summary of about 500 words"),
				"problem_statement": object([]string{"background", "gap"}, map[string]any{
					"background": str("The background or problem the paper addresses"),
					"gap":        str("Shortcomings of existing research"),
				}),
				"methodology_overview": str("Methods, experimental design and data sources"),
				"key_findings": map[string]any{
					"type":        "array",
					"description": "Core findings, at least one",
					"minItems":    1,
					"items": object([]string{"point", "explanation"}, map[string]any{
						"point":       str("The finding"),
						"explanation": str("Explanation or evidence"),
					}),
				},
				"structure_outline":           str("Outline of the paper's sections"),
				"conclusion_and_implications": str("Final conclusion and implications for the field"),
				"tags":                        tagsProperty(),
			})),
		},
		{
			ID:          "deep_analysis",
			Name:        "Deep Analysis",
			Description: "Expert-level reading with data, quotes, critique and tags",
			Prompt: "Analyze the paper in depth as an expert researcher. Include concrete data, quotations and critical thinking, " +
				"and list 4-10 topic tags (without # or other symbols) in the tags field. The output must satisfy the JSON schema.",
			Schema: domain.Schema(object([]string{
				"comprehensive_analysis", "data_extraction", "critical_thinking",
				"knowledge_base", "research_application", "tags",
			}, map[string]any{
				"comprehensive_analysis": object([]string{"context_review", "detailed_methodology"}, map[string]any{
					"context_review":       str("Literature background and theories cited"),
					"detailed_methodology": str("Technical details, parameters, samples"),
				}),
				"data_extraction": object([]string{"description", "key_statistics", "tables_summary"}, map[string]any{
					"description": str("Overview of key statistics or experimental results"),
					"key_statistics": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Key figures such as accuracy or p-values",
					},
					"tables_summary": str("Textual reading of the main tables and figures"),
				}),
				"critical_thinking": object([]string{"strengths", "weaknesses_and_limitations", "verification"}, map[string]any{
					"strengths":                  str("Concrete strengths"),
					"weaknesses_and_limitations": str("Limitations and biases"),
					"verification":               str("Whether logic and evidence are consistent"),
				}),
				"knowledge_base": object([]string{"key_terms_definitions", "notable_quotes"}, map[string]any{
					"key_terms_definitions": map[string]any{
						"type":        "array",
						"description": "Key terms and their definitions",
						"items": object([]string{"term", "definition"}, map[string]any{
							"term":       map[string]any{"type": "string"},
							"definition": map[string]any{"type": "string"},
						}),
					},
					"notable_quotes": map[string]any{
						"type":        "array",
						"description": "Notable quotes and their approximate location",
						"items": object([]string{"quote", "page_location"}, map[string]any{
							"quote":         map[string]any{"type": "string"},
							"page_location": map[string]any{"type": "string"},
						}),
					},
				}),
				"research_application": str("Suggestions for future research or applications"),
				"tags":                 tagsProperty(),
			})),
		},
		{
			ID:          "workflow_formula",
			Name:        "Formula Extraction",
			Description: "Extracts and explains every formula, equation and derivation",
			Workflow:    true,
			Prompt: `Read this paper carefully and extract and explain all of its mathematical formulas and derivations.

For each important formula, provide:
1. **The formula itself** (in LaTeX)
2. **Its physical or mathematical meaning**
3. **The definition of every variable and symbol**
4. **The background or origin of the derivation**
5. **Where it is applied in the paper**

Order the formulas as they appear in the paper and note the approximate page.

If the paper contains no formulas, say so and outline its main methodology instead.`,
		},
		{
			ID:          "workflow_charts",
			Name:        "Chart & Figure Analysis",
			Description: "In-depth reading of every chart, figure and visualization",
			Workflow:    true,
			Prompt: `Read every chart in this paper (figures, tables, flowcharts, diagrams) and interpret each in depth.

For each chart, provide:
1. **Number and title**
2. **Type** (bar, line, heatmap, flowchart, table, diagram...)
3. **The core data or information shown**
4. **Key findings and insights**
5. **How it supports the paper's central argument**
6. **Limitations or caveats**

Order the charts as they appear in the paper.

Finally, summarize how the charts together support the paper's main conclusions.`,
		},
	}
}

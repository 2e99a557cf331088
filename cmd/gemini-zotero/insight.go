package main

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/document"
	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/insight"
)

// newInsightCmd creates the insight subcommand.
func (a *app) newInsightCmd() *cobra.Command {
	var (
		style  string
		output string
	)

	styleNames := make([]string, 0, len(insight.Styles()))
	for _, s := range insight.Styles() {
		styleNames = append(styleNames, string(s))
	}

	cmd := &cobra.Command{
		Use:   "insight <pdf>",
		Short: "Render a visual insight image of a PDF",
		Long: `Insight runs two generation calls: the first derives a JSON design manifest
from the paper, the second renders that manifest into an image.

Styles: ` + strings.Join(styleNames, ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parsed, err := insight.ParseStyle(style)
			if err != nil {
				return err
			}

			src := document.NewFileSource(args[0])
			doc, err := src.Load(ctx)
			if err != nil {
				return err
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}

			svc := a.newInsightService(client, func(from, to insight.State) {
				a.ui.Debug("%s -> %s", from, to)
			})

			bar := a.ui.NewProgressBar("Insight")
			image, err := svc.GenerateInsight(ctx, doc, parsed, bar.Func())
			if err != nil {
				bar.Finish()
				return err
			}
			bar.Finish()

			raw, err := base64.StdEncoding.DecodeString(image)
			if err != nil {
				return domain.ParseError("image payload is not valid base64", err)
			}
			if output == "" {
				output = defaultOutputPath(src.Name(), "insight.png")
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return domain.IOError("write "+output, err)
			}

			if a.outputJSON {
				return a.ui.PrintJSON(map[string]any{
					"document": src.Name(),
					"style":    parsed,
					"output":   output,
					"bytes":    len(raw),
				})
			}
			a.ui.Success("Visual insight saved to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", string(insight.StyleSchematic), "visual style ("+strings.Join(styleNames, "|")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "image path (default: <name>-insight.png)")

	return cmd
}

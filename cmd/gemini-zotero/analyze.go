package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/document"
	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/history"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

// analyzeOutput is printed with --json.
type analyzeOutput struct {
	Document string   `json:"document"`
	Template string   `json:"template,omitempty"`
	Model    string   `json:"model"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags,omitempty"`
}

// newAnalyzeCmd creates the analyze subcommand.
func (a *app) newAnalyzeCmd() *cobra.Command {
	var (
		prompt     string
		templateID string
		output     string
		session    string
	)

	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Analyze a PDF with a template or a free prompt",
		Long: `Analyze sends the PDF to Gemini together with the prompt of the selected
template. Documents of 20 MiB or more are uploaded through the Files API first.

Structured templates return JSON; tags found in the response are listed.
With --session the exchange is stored so "chat" can continue it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src := document.NewFileSource(args[0])
			doc, err := src.Load(ctx)
			if err != nil {
				return err
			}

			var tmpl templates.Template
			if strings.TrimSpace(prompt) == "" {
				reg, err := a.registry()
				if err != nil {
					return err
				}
				id := templateID
				if id == "" {
					id = a.cfg.Templates.Default
				}
				tmpl = reg.Resolve(id)
				if tmpl.ID != id {
					a.ui.Warning("Unknown template %q, using %s", id, tmpl.ID)
				}
				prompt = tmpl.Prompt
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}

			a.ui.Step("Analyzing %s (%.1f MB)", src.Name(), float64(len(doc))/1024/1024)
			spin := a.ui.NewSpinner("Waiting for Gemini...")
			spin.Start()
			res, err := client.AnalyzeDocument(ctx, doc, prompt, tmpl.Schema, nil)
			spin.Stop()
			if err != nil {
				return err
			}

			out := analyzeOutput{
				Document: src.Name(),
				Template: tmpl.ID,
				Model:    client.Model(),
				Text:     res.Text,
			}
			if tmpl.Structured() {
				out.Tags = templates.ExtractTags(res.Text)
			}

			if session != "" {
				if err := a.remember(cmd, session, prompt, res.Text); err != nil {
					a.ui.Warning("History not saved: %s", domain.UserMessage(err))
				}
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(domain.StripCodeFence(res.Text)+"\n"), 0o644); err != nil {
					return domain.IOError("write "+output, err)
				}
			}

			if a.outputJSON {
				return a.ui.PrintJSON(out)
			}
			if output != "" {
				a.ui.Success("Analysis written to %s", output)
			} else {
				a.ui.Print(res.Text)
			}
			if len(out.Tags) > 0 {
				a.ui.Info("Tags: %s", strings.Join(out.Tags, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "free-form prompt (overrides --template)")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "template id (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the response to this file")
	cmd.Flags().StringVarP(&session, "session", "s", "", "save the exchange in this chat session")

	return cmd
}

// remember appends one question and answer to a history session.
func (a *app) remember(cmd *cobra.Command, session, prompt, answer string) error {
	store, err := history.Open(cmd.Context(), a.cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Append(cmd.Context(), session,
		domain.UserTurn(domain.TextPart(prompt)),
		domain.Turn{Role: domain.RoleModel, Parts: []domain.Part{domain.TextPart(answer)}},
	)
}

func defaultOutputPath(name, suffix string) string {
	return fmt.Sprintf("%s-%s", name, suffix)
}

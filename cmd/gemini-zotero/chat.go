package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/document"
	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/history"
)

// newChatCmd creates the chat subcommand.
func (a *app) newChatCmd() *cobra.Command {
	var (
		session string
		pdfPath string
		reset   bool
	)

	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Ask a follow-up question in a chat session",
		Long: `Chat continues a conversation stored under --session. Only text is kept
in history; pass --pdf to attach the document to this question again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			store, err := history.Open(ctx, a.cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			if reset {
				if err := store.Clear(ctx, session); err != nil {
					return err
				}
			}

			past, err := store.Load(ctx, session)
			if err != nil {
				return err
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}

			spin := a.ui.NewSpinner("Waiting for Gemini...")
			var res *domain.GenerationResult
			if pdfPath != "" {
				spin.UpdateMessage("Loading " + pdfPath + "...")
				spin.Start()
				var doc []byte
				if doc, err = document.NewFileSource(pdfPath).Load(ctx); err == nil {
					spin.UpdateMessage("Waiting for Gemini...")
					res, err = client.AnalyzeDocument(ctx, doc, prompt, nil, past)
				}
			} else {
				spin.Start()
				res, err = client.Chat(ctx, prompt, past)
			}
			spin.Stop()
			if err != nil {
				return err
			}

			reply := domain.Turn{Role: domain.RoleModel, Parts: []domain.Part{domain.TextPart(res.Text)}}
			if err := store.Append(ctx, session, domain.UserTurn(domain.TextPart(prompt)), reply); err != nil {
				a.ui.Warning("History not saved: %s", domain.UserMessage(err))
			}

			if a.outputJSON {
				return a.ui.PrintJSON(map[string]any{
					"session": session,
					"turns":   len(past) + 2,
					"text":    res.Text,
				})
			}
			a.ui.Print(res.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "default", "chat session name")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "attach this PDF to the question")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the session before asking")

	return cmd
}

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/batch"
	"github.com/replynow20/gemini-zotero/internal/document"
	"github.com/replynow20/gemini-zotero/internal/domain"
)

// newBatchCmd creates the batch subcommand.
func (a *app) newBatchCmd() *cobra.Command {
	var (
		templateID string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "batch <pdf>...",
		Short: "Analyze several PDFs one after another",
		Long: `Batch analyzes every PDF with the same template, pausing between documents
and retrying overloaded or rate-limited requests. One file per document is
written to --out-dir. The command fails only when every document failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := a.registry()
			if err != nil {
				return err
			}
			id := templateID
			if id == "" {
				id = a.cfg.Templates.Default
			}
			tmpl := reg.Resolve(id)

			client, err := a.newClient()
			if err != nil {
				return err
			}
			sink, err := batch.NewDirSink(outDir)
			if err != nil {
				return err
			}

			items := make([]domain.DocumentSource, 0, len(args))
			for _, path := range args {
				items = append(items, document.NewFileSource(path))
			}

			svc := batch.NewService(client, batch.Options{
				Delay:  a.cfg.Batch.Delay,
				Retry:  a.retryConfig(),
				Sink:   sink,
				Logger: a.logger,
			})

			a.ui.Step("Analyzing %d documents with %s", len(items), tmpl.ID)
			progress := a.ui.NewBatchProgress("Documents", len(items))

			eventCh := make(chan domain.StreamEvent, 100)
			type outcome struct {
				summary *batch.Summary
				err     error
			}
			done := make(chan outcome, 1)
			go func() {
				summary, err := svc.Process(ctx, items, tmpl, eventCh)
				close(eventCh)
				done <- outcome{summary, err}
			}()

			progress.Observe(eventCh)
			res := <-done
			a.ui.Close()

			if res.summary != nil {
				if a.outputJSON {
					if err := a.ui.PrintJSON(res.summary); err != nil {
						return err
					}
				} else {
					a.ui.Success("Done: %d succeeded, %d failed in %s",
						res.summary.Succeeded, res.summary.Failed, res.summary.Duration.Round(time.Millisecond))
				}
			}
			return res.err
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "template id (default from config)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "gemini-analysis", "directory for the results")

	return cmd
}

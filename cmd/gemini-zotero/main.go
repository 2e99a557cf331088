// Package main provides the gemini-zotero CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/config"
	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/insight"
	"github.com/replynow20/gemini-zotero/internal/llm"
	"github.com/replynow20/gemini-zotero/internal/observability"
	"github.com/replynow20/gemini-zotero/internal/templates"
	"github.com/replynow20/gemini-zotero/internal/ui"
)

const version = "0.3.0"

// app carries the state shared by every subcommand.
type app struct {
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *ui.UI
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gemini-zotero",
		Short: "Analyze research PDFs with Gemini",
		Long: `gemini-zotero sends PDF documents to the Gemini API for analysis.

Use this tool to:
- Summarize a paper with a built-in or custom template
- Ask follow-up questions in a saved chat session
- Render a visual insight image of a paper
- Analyze many papers in one batch
- Serve the same pipeline over HTTP

All commands support --json for automation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := a.cfg.Observability.LogLevel
			if a.verbose {
				level = "debug"
			}
			logFormat := a.cfg.Observability.LogFormat
			if a.outputJSON {
				logFormat = "json"
			}

			a.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      logFormat,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "gemini-zotero",
			})
			a.ui = ui.NewUI(ui.Options{
				JSON:    a.outputJSON,
				NoColor: a.noColor,
				Verbose: a.verbose,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			})

			cmd.SetContext(observability.ContextWithTraceID(cmd.Context(), observability.NewTraceID()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.ui != nil {
				a.ui.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&a.outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(a.newAnalyzeCmd())
	rootCmd.AddCommand(a.newChatCmd())
	rootCmd.AddCommand(a.newInsightCmd())
	rootCmd.AddCommand(a.newBatchCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newTemplatesCmd())
	rootCmd.AddCommand(a.newVersionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s\n", domain.UserMessage(err))
		stop()
		os.Exit(1)
	}
}

// newClient builds the Gemini client from the loaded configuration.
func (a *app) newClient() (*llm.Client, error) {
	gen := a.cfg.Generation
	return llm.NewClient(llm.Config{
		APIKey:     a.cfg.API.Key,
		Model:      a.cfg.API.Model,
		Endpoint:   a.cfg.API.Endpoint,
		ProxyURL:   a.cfg.API.ProxyURL,
		Timeout:    a.cfg.API.Timeout,
		Generation: &gen,
		Upload: llm.UploadOptions{
			PollInterval:      a.cfg.Upload.PollInterval,
			ProcessingTimeout: a.cfg.Upload.ProcessingTimeout,
			DisplayName:       a.cfg.Upload.DisplayName,
		},
		ImageModel: a.cfg.Insight.ImageModel,
		Logger:     a.logger,
	})
}

func (a *app) newInsightService(client insight.Client, onTransition func(from, to insight.State)) *insight.Service {
	return insight.NewService(client, insight.Options{
		ImageConfig: domain.ImageConfig{
			AspectRatio: a.cfg.Insight.AspectRatio,
			ImageSize:   a.cfg.Insight.ImageSize,
		},
		Logger:       a.logger,
		OnTransition: onTransition,
	})
}

func (a *app) registry() (*templates.Registry, error) {
	return templates.LoadRegistry(a.cfg.Templates.CustomPath)
}

func (a *app) retryConfig() llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:    a.cfg.Batch.MaxAttempts,
		InitialBackoff: a.cfg.Batch.InitialBackoff,
		MaxBackoff:     a.cfg.Batch.MaxBackoff,
	}
}

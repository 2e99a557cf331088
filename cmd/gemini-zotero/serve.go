package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/history"
	"github.com/replynow20/gemini-zotero/internal/server"
)

// newServeCmd creates the serve subcommand.
func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := a.newClient()
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			store, err := history.Open(ctx, a.cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			router := server.NewRouter(server.Dependencies{
				Analyzer:  client,
				Chatter:   client,
				Insight:   a.newInsightService(client, nil),
				Templates: reg,
				History:   store,
				Logger:    a.logger,
			}, server.Config{
				RequestTimeout:  a.cfg.Server.RequestTimeout,
				MaxUploadBytes:  a.cfg.Server.MaxUploadBytes,
				DefaultTemplate: a.cfg.Templates.Default,
			})

			a.logger.Info().
				Str("addr", a.cfg.Addr()).
				Str("model", client.Model()).
				Str("history", a.cfg.History.Driver).
				Msg("Starting gemini-zotero API")

			srv := &http.Server{
				Addr:         a.cfg.Addr(),
				Handler:      router,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  a.cfg.Server.IdleTimeout,
			}
			return server.Serve(ctx, srv, a.cfg.Server.GracefulShutdown, a.logger)
		},
	}
}

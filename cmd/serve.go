package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/bird-tagger/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Bird Tagger HTTP API.
The API serves searches, bulk tag edits, deletions, uploads, ingestion
events from the storage bucket and alert subscriptions under /api/v1.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{blobs: true, detector: true, notifier: true})
	if err != nil {
		return err
	}
	defer a.Close()

	webCfg := a.cfg.Web
	if port := mustGetInt(cmd, "port"); port > 0 {
		webCfg.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		webCfg.Host = host
	}

	server := web.NewServer(&webCfg, web.Services{
		Engine:   a.engine(),
		Mutator:  a.mutator(),
		Deleter:  a.deleter(),
		Pipeline: a.pipeline(),
		Notifier: a.notifier,
		Locator:  a.locator,
		Catalog:  a.cfg.Catalog.Names(),
		Ready:    a.ready,
	}, a.log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Error("error during shutdown", "error", err)
		}
	}()

	a.log.Info("bird tagger ready",
		"store", a.cfg.Database.Driver,
		"bucket", a.cfg.Storage.Bucket,
		"notifications", a.notifier != nil,
	)
	return server.Start()
}

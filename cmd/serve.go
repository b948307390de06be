package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/api"
	"github.com/ViktorIgeland/lkpg-rs/internal/embed"
	"github.com/ViktorIgeland/lkpg-rs/internal/index"
	"github.com/ViktorIgeland/lkpg-rs/internal/search"
)

// newServeCmd creates the 'serve' subcommand, which runs the search API.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the semantic search HTTP API",
		Long: `Starts the HTTP server exposing POST /search over the vector index.
The index connection is established at startup; queries are embedded with
the same model used during ingestion.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder := embed.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Dimensions)
	idx, err := index.NewPinecone(index.PineconeConfig{
		APIKey:    cfg.Pinecone.APIKey,
		IndexName: cfg.Pinecone.IndexName,
		Cloud:     cfg.Pinecone.Cloud,
		Region:    cfg.Pinecone.Region,
	}, logger)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}
	// Fail fast if the index is unreachable rather than on the first query.
	if err := idx.Ensure(ctx, embedder.Dimensions()); err != nil {
		return fmt.Errorf("connect to vector index: %w", err)
	}

	svc := search.New(embedder, idx, cfg.Search.DefaultTopK, cfg.Search.MaxTopK, logger)
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	server := api.NewServer(svc, timeout, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("search API listening", zap.String("addr", httpServer.Addr))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down search API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

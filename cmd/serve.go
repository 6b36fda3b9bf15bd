package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/aggregate"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/completion"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/config"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/httpapi"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/ingest"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/jobs"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/provider"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/research"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/score"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Optional .env for API keys; absence is fine.
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	index, err := store.Open(config.IndexPath())
	if err != nil {
		return fmt.Errorf("opening article index: %w", err)
	}
	defer index.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := buildOrchestrator(cfg, index, log)
	if err != nil {
		return err
	}

	queue := jobs.NewQueue(cfg.JobRetentionDuration(), log)
	go queue.Run(ctx, time.Minute)

	refresher := ingest.NewRefresher(ingest.NewRSSFetcher(cfg.RetentionDuration()), index, log)
	go refresher.Run(ctx, cfg.EnabledFeeds(), cfg.RefreshDuration())

	runner := research.NewRunner(ctx, queue, orch, log)
	router := httpapi.NewRouter(httpapi.NewHandler(runner, queue))

	addr := cfg.Server.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func buildOrchestrator(cfg *config.Config, index *store.Index, log *slog.Logger) (*research.Orchestrator, error) {
	agg := aggregate.New(aggregate.Config{
		GovernmentThreshold: cfg.Research.GovernmentThreshold,
		GeneralThreshold:    cfg.Research.GeneralThreshold,
		MaxSources:          cfg.Research.MaxSources,
		ProviderTimeout:     cfg.ProviderTimeout(),
		Scoring:             score.Config{TrustedOrigins: cfg.OutletNames()},
	}, log)

	opts := []research.Option{
		research.WithIndexer(index),
		research.WithWebFallback(provider.NewWebSearch(cfg.TrustedOutlets, cfg.Research.FallbackFloor, cfg.ProviderTimeout())),
	}

	if key := cfg.CongressKey(); key != "" {
		opts = append(opts, research.WithLegislative(provider.NewCongress(key, cfg.ProviderTimeout())))
	} else {
		log.Warn("congress.gov API key not set; legislative provider disabled")
	}

	if cfg.AIEnabled() {
		completer, err := completion.New(cfg.AI, cfg.AIKey(), cfg.CompletionTimeout())
		if err != nil {
			return nil, fmt.Errorf("configuring completion backend: %w", err)
		}
		opts = append(opts, research.WithCompleter(completer))
	} else {
		log.Warn("no completion backend configured; research jobs will fail at the completion step")
	}

	newsIndex := provider.NewArticleIndex(index, cfg.Research.MaxSources*5)

	return research.New(research.Config{FallbackFloor: cfg.Research.FallbackFloor},
		agg, newsIndex, log, opts...), nil
}

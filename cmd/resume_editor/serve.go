package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/generation"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/logger"
	"github.com/jonathan/resume-editor/internal/matching"
	"github.com/jonathan/resume-editor/internal/server"
)

// generationTimeout bounds one call to the generation service.
const generationTimeout = 90 * time.Second

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the live document, its history and versions, and autosaves it periodically.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openPersistence(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()
	log.Info("storage ready", zap.String("backend", store.backend), zap.String("document_id", cfg.DocumentID))

	opts, closeLLM, err := sessionOptions(ctx, cfg, log, store)
	if err != nil {
		return err
	}
	defer closeLLM()

	session := editor.NewSession(autosave.Seed(ctx, store.documents, log), opts...)
	if err := session.LoadVersions(ctx); err != nil {
		log.Error("starting without stored versions", zap.Error(err))
	}

	scheduler := autosave.New(session, store.documents, time.Duration(cfg.AutosaveInterval),
		autosave.WithLogger(log),
		autosave.WithNotify(session.NotifyAutosave),
	)
	srv := server.New(server.Config{Port: cfg.Port, Logger: log}, session)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	runErr := g.Wait()

	// Results still in flight settle into the document before the last save.
	session.Wait()
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if res := scheduler.Tick(flushCtx); res.Err != nil {
		log.Error("final save failed", zap.Error(res.Err))
	}

	if runErr != nil {
		return fmt.Errorf("server stopped: %w", runErr)
	}
	return nil
}

// sessionOptions builds the session configuration. Without an API key generation requests
// are dropped and job matching falls back to keyword analysis.
func sessionOptions(ctx context.Context, cfg config.Config, log *zap.Logger, store *persistence) ([]editor.Option, func(), error) {
	opts := []editor.Option{
		editor.WithLogger(log),
		editor.WithHistoryLimit(cfg.HistoryLimit),
		editor.WithAutoCapture(cfg.AutoCaptureVersions),
		editor.WithVersionStore(store.versions),
	}
	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set: generation disabled, keyword job matching only")
		return opts, func() {}, nil
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	opts = append(opts,
		editor.WithGenerationService(generation.NewLLMService(client), generation.DispatcherConfig{
			MaxConcurrent: int64(cfg.MaxConcurrentGenerations),
			Timeout:       generationTimeout,
			Logger:        log,
		}),
		editor.WithAnalyzer(matching.NewLLMAnalyzer(client, log)),
	)
	return opts, func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close LLM client", zap.Error(err))
		}
	}, nil
}

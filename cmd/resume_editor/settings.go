package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/storage"
)

var (
	configPath  string
	logMode     string
	dataDir     string
	databaseURL string
	documentID  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON config file")
	flags.StringVar(&logMode, "log-mode", "", "Logging mode: development, production or quiet")
	flags.StringVar(&dataDir, "data-dir", "", "Directory for file-backed storage (used without a database)")
	flags.StringVar(&databaseURL, "db-url", "", "PostgreSQL URL (overrides DATABASE_URL env var)")
	flags.StringVar(&documentID, "document-id", "", "Key of the persisted document")
}

// loadSettings resolves configuration from the config file, then the environment, then
// command-line flags, and fills the rest with defaults.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-mode") {
		cfg.LogMode = logMode
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("document-id") {
		cfg.DocumentID = documentID
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port = servePort
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// persistence is the storage backend chosen by configuration.
type persistence struct {
	documents autosave.Persister
	versions  editor.VersionStore
	backend   string
	close     func()
}

// openPersistence connects to PostgreSQL when a database URL is configured and falls
// back to JSON files in the data directory otherwise.
func openPersistence(ctx context.Context, cfg config.Config) (*persistence, error) {
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return &persistence{
			documents: database.Documents(cfg.DocumentID),
			versions:  database.Versions(cfg.DocumentID),
			backend:   "postgres",
			close:     database.Close,
		}, nil
	}

	files, err := storage.NewFileStore(cfg.DataDir, cfg.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return &persistence{
		documents: files,
		versions:  files,
		backend:   "files",
		close:     func() {},
	}, nil
}

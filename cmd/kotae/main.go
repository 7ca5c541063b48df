// Package main is the kotae CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kotae/config.yaml"
	// configPathEnv names the config file when --config is not given.
	configPathEnv = "KOTAE_CONFIG"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "kotae",
		Short: "kotae answers questions from your documents",
		Long: `kotae splits documents into paragraphs, embeds every paragraph and
stores the result as a corpus. Questions are answered with the corpus
paragraphs closest to the question.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default $"+configPathEnv+", ./config.yaml or "+defaultConfigPath+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newListCmd(opts),
		newStatusCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("kotae version %s\n", version)
		},
	}
}

// resolveConfigPath picks the config file: the flag, then $KOTAE_CONFIG, then
// config.yaml in the working directory, then the system default. explicit is
// false when the caller did not name a file, so a missing file is not an error.
func resolveConfigPath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(configPathEnv); env != "" {
		return env, true
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, err := os.Stat(fallback); err == nil {
			return fallback, false
		}
	}
	return defaultConfigPath, false
}

// loadConfig loads the resolved config file and applies KOTAE_* overrides.
// Returns the config and the path it was loaded from; the path is empty when
// no file exists and defaults are used.
func loadConfig(flagPath string) (*config.Config, string, error) {
	path, explicit := resolveConfigPath(flagPath)
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg, path = config.Default(), ""
	default:
		return nil, "", err
	}
	config.ApplyEnv(cfg)
	return cfg, path, nil
}

// setup loads config and creates the logger for a command.
func setup(opts *rootOptions) (*config.Config, string, *zap.Logger, error) {
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || opts.debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, path, logger, nil
}

// Components holds initialized services.
type Components struct {
	Store    storage.Store
	Provider *embedding.Provider
	Builder  *indexer.Builder
	Indexer  *indexer.Indexer
	Engine   *search.Engine
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewStore(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	provider, err := embedding.NewProviderFromConfig(&cfg.Embedding, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	builder := indexer.NewBuilder(provider, cfg.Ingest.Concurrency)
	idx := indexer.NewIndexer(builder, store,
		indexer.WithExtensions(cfg.Ingest.Extensions),
		indexer.WithLogger(logger),
	)
	engine := search.NewEngine(store, provider, &cfg.Search, search.WithLogger(logger))

	logger.Debug("components initialized",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("ingest_concurrency", cfg.Ingest.Concurrency),
	)
	return &Components{
		Store:    store,
		Provider: provider,
		Builder:  builder,
		Indexer:  idx,
		Engine:   engine,
	}, nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
	"github.com/kozaktomas/bird-tagger/internal/config"
	"github.com/kozaktomas/bird-tagger/internal/database"
	"github.com/kozaktomas/bird-tagger/internal/database/mariadb"
	"github.com/kozaktomas/bird-tagger/internal/database/mock"
	"github.com/kozaktomas/bird-tagger/internal/database/postgres"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/notify"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// app holds the backends shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    database.AssetStore
	blobs    blobstore.Store
	detector *ai.Detector
	notifier notify.Notifier
	locator  asset.Locator
	ready    func(context.Context) error
	closers  []func() error
}

// appOptions selects which optional backends a command needs.
type appOptions struct {
	blobs    bool
	detector bool
	notifier bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		locator: asset.Locator{Bucket: cfg.Storage.Bucket, Region: cfg.Storage.Region},
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	store, err := database.GetAssetStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	if opts.blobs {
		blobs, err := blobstore.NewS3Store(ctx, &cfg.Storage)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create blob store: %w", err)
		}
		a.blobs = blobs
	}

	if opts.detector {
		classifier, err := newClassifier(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.detector = ai.NewDetector(classifier, ai.NewFFmpegFrames(cfg.Video.FFmpegPath, cfg.Video.FFprobePath))
		log.Info("detector ready", "classifier", classifier.Name())
	}

	if opts.notifier && cfg.Notify.Enabled {
		notifier, err := notify.NewSNSNotifier(ctx, cfg.Notify.Region)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create notifier: %w", err)
		}
		a.notifier = notifier
	}

	return a, nil
}

// openStore connects the configured record store and registers it.
func (a *app) openStore(ctx context.Context) error {
	switch driver := a.cfg.Database.Driver; driver {
	case "postgres":
		applied, err := postgres.Initialize(&a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		pool := postgres.GetGlobalPool()
		a.closers = append(a.closers, pool.Close)
		a.ready = pool.Ping
		repo := postgres.NewAssetRepository(pool)
		database.RegisterBackend(driver, func() database.AssetStore { return repo })
		a.log.Info("using PostgreSQL record store", "migrations_applied", applied)

	case "mariadb":
		pool, err := mariadb.NewPool(&a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.ready = pool.Ping
		if err := pool.EnsureSchema(ctx); err != nil {
			return err
		}
		repo := mariadb.NewAssetRepository(pool)
		database.RegisterBackend(driver, func() database.AssetStore { return repo })
		a.log.Info("using MariaDB record store")

	case "memory":
		store := mock.NewAssetStore()
		database.RegisterBackend(driver, func() database.AssetStore { return store })
		a.log.Warn("using in-memory record store, records are lost on exit")

	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (postgres, mariadb, memory)", driver)
	}
	return nil
}

// newClassifier builds the classifier selected by DETECTOR_PROVIDER.
func newClassifier(ctx context.Context, cfg *config.Config) (ai.Classifier, error) {
	species := cfg.Catalog.Names()
	switch cfg.Detector.Provider {
	case "http":
		return ai.NewHTTPClassifier(cfg.Detector.URL), nil
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN is required for the openai detector")
		}
		return ai.NewOpenAIClassifier(cfg.OpenAI.Token, species), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini detector")
		}
		return ai.NewGeminiClassifier(ctx, cfg.Gemini.APIKey, species)
	}
	return nil, fmt.Errorf("unsupported DETECTOR_PROVIDER %q (http, openai, gemini)", cfg.Detector.Provider)
}

func (a *app) engine() *tagging.Engine {
	return tagging.NewEngine(a.store, a.detector, a.locator, a.cfg.Detector.ContentSearchConfidence)
}

func (a *app) mutator() *tagging.Mutator {
	return tagging.NewMutator(a.store, a.locator)
}

func (a *app) deleter() *tagging.Deleter {
	return tagging.NewDeleter(a.store, a.blobs, a.locator, a.log.With("service", "delete"))
}

func (a *app) pipeline() *tagging.Pipeline {
	return tagging.NewPipeline(a.store, a.blobs, a.detector, a.notifier, a.locator, tagging.PipelineConfig{
		MinConfidence:  a.cfg.Detector.MinConfidence,
		ThumbnailWidth: a.cfg.Thumbnail.Width,
	}, a.log.With("service", "ingest"))
}

// Close releases the database pool and flushes the logger.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("failed to close backend", "error", err)
		}
	}
	database.ResetBackend()
	a.log.Sync()
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/config"
	"github.com/kailas-cloud/movieidx/internal/db"
	dbMongo "github.com/kailas-cloud/movieidx/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/movieidx/internal/db/redis"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	logpkg "github.com/kailas-cloud/movieidx/internal/logger"
	"github.com/kailas-cloud/movieidx/internal/metrics"
	"github.com/kailas-cloud/movieidx/internal/repository/ledger"
	indexrepo "github.com/kailas-cloud/movieidx/internal/repository/textindex"
	healthuc "github.com/kailas-cloud/movieidx/internal/usecase/health"
	textindexuc "github.com/kailas-cloud/movieidx/internal/usecase/textindex"
)

// app is the composition root shared by every command that talks to a store.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	ledger *ledger.Store
	index  *textindexuc.Service
	health *healthuc.Service
}

// desiredIndex builds the movie catalog index with the configured options.
func desiredIndex(cfg config.IndexConfig) (domidx.Index, error) {
	idx, err := domidx.MovieCatalog(
		domidx.WithName(cfg.Name),
		domidx.WithDefaultLanguage(cfg.DefaultLanguage),
		domidx.WithLanguageOverride(cfg.LanguageOverride),
	)
	if err != nil {
		return domidx.Index{}, fmt.Errorf("desired index: %w", err)
	}
	return idx, nil
}

func newStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		s, err := dbMongo.NewStore(dbMongo.Config{
			URI:        cfg.URI,
			ReplicaSet: cfg.ReplicaSet,
			Database:   cfg.Name,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newApp loads config, connects the store and wires the services.
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(flags.env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	desired, err := desiredIndex(cfg.Index)
	if err != nil {
		return nil, err
	}

	store, err := newStore(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Debug("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("collection", cfg.Database.Collection),
	)

	a := &app{env: flags.env, cfg: cfg, logger: logger, store: store}

	// Pass nil interfaces (not typed nil pointers) when the ledger is disabled.
	var (
		led       textindexuc.Ledger
		ledPinger healthuc.Pinger
	)
	if cfg.Ledger.Path != "" {
		a.ledger, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			store.Close()
			return nil, err
		}
		led, ledPinger = a.ledger, a.ledger
	}

	metrics.RegisterIndexMetrics()

	repo := indexrepo.New(store, indexrepo.Layout{
		Collection: cfg.Database.Collection,
		KeyPrefix:  cfg.Database.KeyPrefix,
	})
	a.index = textindexuc.New(textindexuc.NewInstrumentedRepository(repo, logger), led, desired, logger)
	a.health = healthuc.New(store, ledPinger)

	return a, nil
}

func (a *app) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("Failed to close ledger", zap.Error(err))
		}
	}
	a.store.Close()
	_ = a.logger.Sync()
}

// withApp runs fn against a connected app and closes it afterwards.
func withApp(ctx context.Context, flags *globalFlags, fn func(*app) error) error {
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

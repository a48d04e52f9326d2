package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/flow"
	"github.com/hidrotec-mx/intake-cli/internal/generate"
	"github.com/hidrotec-mx/intake-cli/internal/session"
	anthropicpkg "github.com/hidrotec-mx/intake-cli/pkg/anthropic"
)

// intakeEnv bundles the pieces every command needs.
type intakeEnv struct {
	Catalog    *catalog.Catalog
	Controller *flow.Controller
	Manager    *session.Manager
	store      session.Store
}

func (e *intakeEnv) Close() {
	if e.store != nil {
		e.store.Close() //nolint:errcheck
	}
}

func initCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Default()
}

func initStore(ctx context.Context) (session.Store, error) {
	ttl := time.Duration(cfg.Store.TTLHours) * time.Hour

	switch cfg.Store.Driver {
	case "memory":
		return session.NewMemory(ttl), nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "intake.db"
		}
		return session.NewSQLite(dsn, ttl)
	case "postgres":
		return session.NewPostgres(ctx, cfg.Store.DatabaseURL, ttl)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEnv(ctx context.Context) (*intakeEnv, error) {
	cat, err := initCatalog()
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	gen := generate.New(anthropicpkg.NewClient(cfg.Anthropic.Key), generate.Options{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: cfg.Anthropic.Temperature,
		RPM:         cfg.Anthropic.RPM,
	})

	ctrl := flow.New(cat, gen, flow.Options{
		SummaryEvery: cfg.Flow.SummaryEvery,
		HistoryLimit: cfg.Flow.HistoryLimit,
	})

	return &intakeEnv{
		Catalog:    cat,
		Controller: ctrl,
		Manager:    session.NewManager(st),
		store:      st,
	}, nil
}

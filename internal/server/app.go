// Package server wires the sync server together: configuration, Postgres,
// services, and the gRPC and HTTP endpoints.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/config"
	"github.com/dmitrijs2005/possync/internal/server/httpapi"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/possync/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/possync/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	grpc   *gs.GRPCServer
	http   *httpapi.Server
}

// NewApp connects to Postgres, applies migrations, seeds the catalog when a
// seed file is configured and builds both endpoints.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, cfg, db, repomanager.NewPostgresRepositoryManager(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	us := services.NewUserService(db, rm, cfg)
	ss := services.NewStoreService(db, rm, logger.With("module", "store"))
	snaps := services.NewSnapshotService(cfg)

	if cfg.CatalogSeedFile != "" {
		if _, err := ss.SeedCatalog(ctx, cfg.CatalogSeedFile); err != nil {
			return nil, fmt.Errorf("catalog seed: %w", err)
		}
	}

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		grpc:   gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, us, ss, snaps, cfg.SecretKey),
		http:   httpapi.NewServer(cfg.EndpointAddrHTTP, httpapi.NewRouter(db, logger), logger),
	}, nil
}

// Run serves gRPC and HTTP until ctx is done or either server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(ctx) })
	g.Go(func() error { return app.http.Run(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) Close() error {
	return app.db.Close()
}

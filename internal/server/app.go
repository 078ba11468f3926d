// Package server initializes and runs the Zynox Cloud server: it opens
// the database, applies migrations, resolves the master encryption key,
// wires the services and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/cryptox"
	"github.com/zynoxlab/zynox-cloud/internal/logging"
	"github.com/zynoxlab/zynox-cloud/internal/server/config"
	"github.com/zynoxlab/zynox-cloud/internal/server/memories"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/repomanager"
	"github.com/zynoxlab/zynox-cloud/internal/server/rest"
	"github.com/zynoxlab/zynox-cloud/internal/server/shares"
	"github.com/zynoxlab/zynox-cloud/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *rest.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// sql.Open does not dial; fail fast when the store is unreachable.
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %v: %w", err, common.ErrorStoreUnavailable)
	}

	rm, err := repomanager.New(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	key, source, err := cryptox.LoadOrCreateKey(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("key init error: %w", err)
	}
	logger.Info(ctx, "master key resolved", "source", string(source))

	cipher, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	ms := memories.NewService(db, rm, cipher, logger)
	ss := shares.NewService(db, rm, store, cfg.ShareLinkTTL, logger)
	srv := rest.NewServer(cfg.Address, cfg.APIKey, ms, ss, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.Address, "driver", app.config.DatabaseDriver)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	return err
}

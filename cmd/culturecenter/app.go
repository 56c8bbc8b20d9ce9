package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/culture-center/internal/backend"
	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/config"
	"github.com/example/culture-center/internal/ids"
	"github.com/example/culture-center/internal/keyvalue"
	"github.com/example/culture-center/internal/logging"
	"github.com/example/culture-center/internal/metrics"
	"github.com/example/culture-center/internal/persistence/sqlite"
)

// app is the object graph of one command invocation.
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	pool         *sqlite.ConnectionPool
	kv           *keyvalue.Store
	auth         *backend.Authenticator
	session      *center.SessionStore
	campaigns    *center.CampaignRegistry
	applications *center.ApplicationRegistry
}

type opener func(ctx context.Context) (*app, error)

func openFromEnv(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logging.New(nil, level), keyvalue.Config{Path: cfg.SessionDir})
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, kvCfg keyvalue.Config) (*app, error) {
	pool, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.SQLiteDSN, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("데이터베이스를 열 수 없습니다: %w", err)
	}

	kvCfg.Logger = logger
	kv, err := keyvalue.Open(kvCfg)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("세션 저장소를 열 수 없습니다: %w", err)
	}

	tokens, err := backend.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL, nil)
	if err != nil {
		_ = kv.Close()
		_ = pool.Close()
		return nil, err
	}

	auth := backend.NewAuthenticator(sqlite.NewUserRepository(pool), tokens, ids.New, nil, backend.WithAuthLogger(logger))
	session := center.NewSessionStoreWithLogger(auth, kv, logger)
	campaignRepo := sqlite.NewCampaignRepository(pool)

	return &app{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		kv:           kv,
		auth:         auth,
		session:      session,
		campaigns:    center.NewCampaignRegistryWithLogger(backend.NewCampaignSource(campaignRepo, nil), ids.New, nil, logger),
		applications: center.NewApplicationRegistryWithLogger(session, backend.NewApplicationSource(sqlite.NewApplicationRepository(pool), campaignRepo, nil), ids.New, nil, logger),
	}, nil
}

// Close flushes metrics and releases both stores.
func (a *app) Close() error {
	return errors.Join(
		metrics.WriteTextfile(a.cfg.MetricsTextfile),
		a.kv.Close(),
		a.pool.Close(),
	)
}

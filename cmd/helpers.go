package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ziadkadry99/modguard/internal/config"
	"github.com/ziadkadry99/modguard/internal/db"
	"github.com/ziadkadry99/modguard/internal/logging"
	"github.com/ziadkadry99/modguard/internal/moderation"
	"github.com/ziadkadry99/modguard/internal/notifications"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `modguard init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the logger for cfg; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(level, string(cfg.LogFormat))
}

// openStore opens the configured store. The returned closer releases it.
func openStore(cfg *config.Config) (moderation.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreFile:
		return moderation.NewFileStore(cfg.StorePath()), nopCloser{}, nil
	default:
		database, err := db.Open(cfg.StorePath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return moderation.NewSQLStore(database), database, nil
	}
}

// app bundles what every moderation command needs.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	svc    *moderation.Service
	closer io.Closer
}

func (a *app) Close() {
	a.closer.Close()
	_ = a.log.Sync()
}

// openApp loads config, logger and store, and builds the service.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	svc := moderation.NewService(store, moderation.Options{
		Logger:           log,
		MaxContentLength: cfg.MaxContentLength,
	})
	return &app{cfg: cfg, log: log, svc: svc, closer: closer}, nil
}

// startNotifications forwards queue events to the configured webhooks until
// ctx is done. It does nothing when no webhooks are configured.
func (a *app) startNotifications(ctx context.Context) {
	if len(a.cfg.Webhooks) == 0 {
		return
	}
	hooks := make([]notifications.Webhook, 0, len(a.cfg.Webhooks))
	for _, h := range a.cfg.Webhooks {
		hook := notifications.Webhook{
			URL:         h.URL,
			MinSeverity: moderation.Severity(h.MinSeverity),
		}
		for _, e := range h.Events {
			hook.Events = append(hook.Events, moderation.EventType(e))
		}
		hooks = append(hooks, hook)
	}
	d := notifications.NewDispatcher(hooks, a.log.Named("webhooks"))
	go d.Run(ctx, a.svc.Events())
	a.log.Info("webhook notifications enabled", zap.Int("webhooks", len(hooks)))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Alias1177/Rebalancer/internal/api/thegraph"
	"github.com/Alias1177/Rebalancer/internal/database"
	"github.com/Alias1177/Rebalancer/internal/monitor"
	"github.com/Alias1177/Rebalancer/internal/notify"
	"github.com/Alias1177/Rebalancer/internal/poolmetrics"
	"github.com/Alias1177/Rebalancer/internal/rebalance"
	"github.com/Alias1177/Rebalancer/internal/telemetry"
	"github.com/Alias1177/Rebalancer/models"
)

// app is the wired monitor with the resources it owns
type app struct {
	service  *monitor.Service
	registry *prometheus.Registry
	db       *database.DB
}

func newApp(ctx context.Context, rt *appState) (*app, error) {
	cfg := rt.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := thegraph.NewClient(thegraph.ClientOptions{
		GatewayURL:      cfg.GatewayURL,
		APIKey:          cfg.TheGraphAPIKey,
		SubgraphID:      cfg.SubgraphID,
		RequestTimeout:  cfg.RequestTimeoutDuration(),
		RequestsPerSec:  cfg.RequestsPerSec,
		MaxRetries:      cfg.MaxRetries,
		MaxRetryTimeout: cfg.MaxRetryTimeoutDuration(),
	}, rt.logger)

	collector := poolmetrics.NewCollector(client, poolmetrics.Options{
		LookbackDays: cfg.LookbackDays,
		Lenient:      cfg.LenientMetrics,
	}, rt.logger)

	notifier, err := buildNotifier(rt)
	if err != nil {
		return nil, err
	}
	decider := rebalance.NewDecider(notifier, cfg.TelegramChatID, rt.logger,
		rebalance.WithReanchor(cfg.ReanchorOnRebalance))

	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := monitor.Options{Recorder: telemetry.NewRecorder(a.registry)}
	if cfg.DatabaseEnabled() {
		db, err := openDatabase(ctx, rt)
		if err != nil {
			return nil, err
		}
		a.db = db
		opts.Journal = db
	}

	a.service = monitor.NewService(cfg.PoolID, collector, cfg.Allocation, decider, opts, rt.logger)
	return a, nil
}

// buildNotifier always logs alerts and adds Telegram delivery when a bot token is set
func buildNotifier(rt *appState) (models.Notifier, error) {
	logNotifier := notify.NewLog(rt.logger)
	if rt.cfg.TelegramBotToken == "" {
		rt.logger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, alerts are only logged")
		return logNotifier, nil
	}

	tg, err := notify.NewTelegram(rt.cfg.TelegramBotToken, rt.logger)
	if err != nil {
		return nil, err
	}
	return notify.Multi{logNotifier, tg}, nil
}

func openDatabase(ctx context.Context, rt *appState) (*database.DB, error) {
	dbCfg := rt.cfg.Database
	db, err := database.New(ctx, database.ConnectionParams{
		Host:     dbCfg.Host,
		Port:     dbCfg.Port,
		User:     dbCfg.User,
		Password: dbCfg.Password,
		DBName:   dbCfg.DBName,
		SSLMode:  dbCfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	rt.logger.Info().Str("host", dbCfg.Host).Str("db", dbCfg.DBName).Msg("Decision journal enabled")
	return db, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

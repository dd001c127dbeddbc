// Package app assembles the engine from configuration: stores, HTTP
// adapters, feeds, notifier, metrics, the admin server, and the scheduler
// loops that drive the recurring evaluations.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"solhelm/internal/config"
	"solhelm/internal/engine"
	"solhelm/internal/feeds"
	"solhelm/internal/logger"
	"solhelm/internal/market"
	"solhelm/internal/notify"
	"solhelm/internal/scheduler"
	"solhelm/internal/store"
	"solhelm/internal/store/decisionlog"
	"solhelm/internal/store/gormstore"
	adminhttp "solhelm/internal/transport/http/admin"
)

// App owns application-level orchestration: build dependencies, start the
// scheduler and admin server, and shut everything down on cancellation.
type App struct {
	cfg      *config.Config
	engine   *engine.Engine
	admin    *adminhttp.Server
	state    store.StateStore
	audit    store.DecisionLog
	notifier *notify.Async
}

// New builds the application object without starting it.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	state, err := gormstore.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	audit, err := decisionlog.New(cfg.Store.DecisionLogPath)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("opening decision log: %w", err)
	}

	deps, registry, notifier, err := buildDeps(cfg, state, audit)
	if err != nil {
		audit.Close()
		state.Close()
		return nil, err
	}

	eng, err := engine.New(cfg, deps)
	if err != nil {
		audit.Close()
		state.Close()
		return nil, fmt.Errorf("building engine: %w", err)
	}

	admin, err := adminhttp.NewServer(adminhttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Engine:   eng,
		Audit:    audit,
		Trades:   state,
		Registry: registry,
	})
	if err != nil {
		audit.Close()
		state.Close()
		return nil, fmt.Errorf("building admin server: %w", err)
	}

	return &App{
		cfg:      cfg,
		engine:   eng,
		admin:    admin,
		state:    state,
		audit:    audit,
		notifier: notifier,
	}, nil
}

// Run starts the admin server and the evaluation loops, blocking until ctx
// is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.admin.Start(ctx); err != nil {
			return fmt.Errorf("admin http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.runScheduler(ctx)
		return nil
	})
	logger.Infof("solhelm running (admin=%s, store=%s)", a.admin.Addr(), a.cfg.Store.Path)
	return group.Wait()
}

func (a *App) runScheduler(ctx context.Context) {
	iv := a.cfg.Intervals
	runner := scheduler.NewRunner(ctx)
	runner.Add(scheduler.Job{
		Name:     "signals",
		Interval: time.Duration(iv.SignalSeconds) * time.Second,
		Task:     a.engine.GenerateSignals,
	})
	runner.Add(scheduler.Job{
		Name:           "positions",
		Interval:       time.Duration(iv.PriceCheckSeconds) * time.Second,
		RunImmediately: true,
		Task:           a.engine.MonitorPositions,
	})
	runner.Add(scheduler.Job{
		Name:     "trailing",
		Interval: time.Duration(iv.TrailingCheckSeconds) * time.Second,
		Task:     a.engine.TickTrailingStops,
	})
	runner.Add(scheduler.Job{
		Name:           "wallet",
		Interval:       time.Duration(iv.WalletSyncSeconds) * time.Second,
		RunImmediately: true,
		Task:           a.engine.SyncWallet,
	})
	runner.Add(scheduler.Job{
		Name:     "performance",
		Interval: time.Duration(iv.PerformanceSeconds) * time.Second,
		Task:     a.engine.TickPerformance,
	})
	runner.Add(scheduler.Job{
		Name:     "dataquality",
		Interval: time.Duration(iv.DataQualitySeconds) * time.Second,
		Task:     a.engine.ValidateDataSources,
	})
	runner.Add(scheduler.Job{
		Name:     "breaker",
		Interval: time.Duration(iv.BreakerCheckSeconds) * time.Second,
		Task:     a.engine.CheckBreaker,
	})
	runner.Wait()
}

func (a *App) close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if err := a.audit.Close(); err != nil {
		logger.Warnf("closing decision log: %v", err)
	}
	if err := a.state.Close(); err != nil {
		logger.Warnf("closing state store: %v", err)
	}
}

// buildDeps wires the HTTP adapters, feeds, notifier, and metrics. Optional
// collaborators with no configured endpoint stay nil; the engine degrades
// around them.
func buildDeps(cfg *config.Config, state store.StateStore, audit store.DecisionLog) (engine.Deps, *prometheus.Registry, *notify.Async, error) {
	ep := cfg.Endpoints
	timeout := time.Duration(ep.TimeoutSeconds) * time.Second
	registry := prometheus.NewRegistry()

	deps := engine.Deps{
		Store:   state,
		Audit:   audit,
		Metrics: engine.NewMetrics(registry),
	}

	if ep.MarketURL == "" {
		return engine.Deps{}, nil, nil, fmt.Errorf("endpoints.market_url is required")
	}
	provider, err := market.NewHTTPProvider(ep.MarketURL, timeout)
	if err != nil {
		return engine.Deps{}, nil, nil, err
	}
	deps.Provider = provider

	if ep.QuoteURL != "" {
		quoter, err := market.NewHTTPQuoter(ep.QuoteURL, timeout)
		if err != nil {
			return engine.Deps{}, nil, nil, err
		}
		deps.Quotes = quoter
	}
	if ep.ExecutorURL != "" {
		executor, err := market.NewHTTPExecutor(ep.ExecutorURL, timeout)
		if err != nil {
			return engine.Deps{}, nil, nil, err
		}
		deps.Executor = executor
	} else {
		logger.Warnf("app: no executor endpoint configured, intents will be logged and dropped")
	}
	if ep.WalletURL != "" {
		wallet, err := market.NewHTTPWallet(ep.WalletURL, ep.WalletAddress, timeout)
		if err != nil {
			return engine.Deps{}, nil, nil, err
		}
		deps.Wallet = wallet
	}

	if deps.Trending, err = buildFeed(ep.TrendingURL, timeout, feeds.NewTrendingFeed); err != nil {
		return engine.Deps{}, nil, nil, err
	}
	if deps.Social, err = buildFeed(ep.SocialURL, timeout, feeds.NewSocialFeed); err != nil {
		return engine.Deps{}, nil, nil, err
	}
	if deps.Ranking, err = buildFeed(ep.RankingURL, timeout, feeds.NewRankingFeed); err != nil {
		return engine.Deps{}, nil, nil, err
	}

	var async *notify.Async
	if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
		tg := notify.NewTelegram(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID)
		async = notify.NewAsync(tg, cfg.Notify.QueueDepth)
		deps.Notifier = async
	}

	return deps, registry, async, nil
}

func buildFeed(rawURL string, timeout time.Duration, construct func(feeds.RawSource) feeds.SignalFeed) (feeds.SignalFeed, error) {
	if rawURL == "" {
		return nil, nil
	}
	src, err := feeds.NewHTTPSource(rawURL, timeout)
	if err != nil {
		return nil, err
	}
	return construct(src), nil
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewDesk/internal/config"
	"ReviewDesk/internal/infrastructure/notify"
	"ReviewDesk/internal/infrastructure/provider"
	"ReviewDesk/internal/infrastructure/scheduler"
	"ReviewDesk/internal/infrastructure/storage"
	"ReviewDesk/internal/infrastructure/telegram"
	"ReviewDesk/internal/logging"
	"ReviewDesk/internal/metrics"
	"ReviewDesk/internal/ports"
	"ReviewDesk/internal/source"
	transporthttp "ReviewDesk/internal/transport/http"
	"ReviewDesk/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	aggregator *usecase.Aggregator
	review     *usecase.Review
	scheduler  *usecase.Scheduler
	pool       *pgxpool.Pool
}

// New builds the runnable application. A Postgres store connects and migrates here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	m := metrics.New()

	client := provider.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout)
	registry, err := BuildRegistry(cfg.Sources, client, baseLogger.With("component", "registry"))
	if err != nil {
		return nil, err
	}

	aggregator := usecase.NewAggregator(usecase.AggregatorDeps{
		Registry:      registry,
		SourceTimeout: cfg.Feed.SourceTimeout,
		Logger:        baseLogger.With("component", "aggregator"),
		Metrics:       m,
	})

	store, pool, err := openStore(ctx, cfg, baseLogger.With("component", "store"))
	if err != nil {
		return nil, err
	}

	review := usecase.NewReview(usecase.ReviewDeps{
		Store:      store,
		Dispatcher: notify.NewHTTPDispatcher(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout),
		Logger:     baseLogger.With("component", "review"),
		Metrics:    m,
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.APIBase, tg.BotToken, tg.ChatID)
	}
	digest := usecase.NewDigest(usecase.DigestDeps{
		Aggregator: aggregator,
		Notifier:   notifier,
		Limit:      cfg.Feed.Limit,
		Logger:     baseLogger.With("component", "digest"),
	})
	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location()),
		digest,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		metrics:    m,
		aggregator: aggregator,
		review:     review,
		scheduler:  sched,
		pool:       pool,
	}, nil
}

// BuildRegistry registers one provider adapter per enabled source, in config order.
// Unknown names are skipped with a warning.
func BuildRegistry(sources []config.SourceConfig, client *provider.Client, logger *slog.Logger) (*source.Registry, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := source.NewRegistry()
	for _, sc := range sources {
		if sc.Disabled {
			continue
		}
		spec, err := provider.Lookup(sc.Name)
		if err != nil {
			logger.Warn("unknown source skipped", "source", sc.Name)
			continue
		}
		if sc.Path != "" {
			spec.Path = sc.Path
		}
		if sc.ChildPath != "" {
			spec.ChildPath = sc.ChildPath
		}
		if err := registry.Register(provider.NewAdapter(spec, client)); err != nil {
			return nil, fmt.Errorf("register source %s: %w", sc.Name, err)
		}
	}
	if registry.Len() == 0 {
		return nil, errors.New("no sources enabled")
	}
	return registry, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.SubmissionStore, *pgxpool.Pool, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		if cfg.Store.DSN == "" {
			return nil, nil, errors.New("store driver postgres requires a dsn")
		}
		pool, err := storage.Connect(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect store: %w", err)
		}
		if cfg.Store.Migration != "" {
			if err := storage.RunMigration(ctx, pool, cfg.Store.Migration); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		logger.Info("using postgres submission store")
		return storage.NewPostgresStore(pool), pool, nil
	case config.StoreREST, "":
		logger.Info("using backend submission store", "base_url", cfg.Backend.BaseURL)
		return storage.NewRESTStore(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Handler exposes the HTTP surface.
func (a *Application) Handler() http.Handler {
	return transporthttp.NewRouter(transporthttp.RouterDeps{
		Feed:     a.aggregator,
		Review:   a.review,
		APIKeys:  a.cfg.HTTP.APIKeys,
		Gatherer: a.metrics.Registry,
		Logger:   a.logger.With("component", "http"),
	})
}

// RunOnce refreshes the feed a single time and writes it to w as JSON.
func (a *Application) RunOnce(ctx context.Context, limit int, w io.Writer) error {
	defer a.Close()

	if limit <= 0 {
		limit = a.cfg.Feed.Limit
	}
	res, err := a.aggregator.Refresh(ctx, limit)
	if err != nil {
		return fmt.Errorf("refresh feed: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Run starts the background digest and serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler stop", "error", err)
	}
	a.logger.Info("stopped")
	return serveErr
}

// Close releases the database pool, if any.
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

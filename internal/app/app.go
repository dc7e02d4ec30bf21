package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginadapter "github.com/botmarket/server/internal/adapter/inbound/gin"
	"github.com/botmarket/server/internal/domain/reconcile"
	"github.com/botmarket/server/internal/infra/config"
	"github.com/botmarket/server/internal/infra/tracing"
)

// App represents the application.
type App struct {
	config    *config.Config
	router    *gin.Engine
	scheduler *reconcile.Scheduler
	zapLogger *zap.Logger

	tracingShutdown tracing.ShutdownFunc
	cleanups        []func()
}

// New creates a new application instance.
func New(cfg *config.Config) (_ *App, err error) {
	app := &App{config: cfg}
	defer func() {
		if err != nil {
			app.runCleanups()
		}
	}()

	// Infrastructure
	log := ProvideLogger(cfg)
	zapLog, cleanup, err := ProvideZapLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}
	app.zapLogger = zapLog
	app.cleanups = append(app.cleanups, cleanup)

	app.tracingShutdown, err = tracing.InitTracerProvider(tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, zapLog)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db, cleanup, err := ProvideDatabase(cfg, zapLog)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.cleanups = append(app.cleanups, cleanup)

	redisClient, cleanup := ProvideRedisClient(cfg, zapLog)
	app.cleanups = append(app.cleanups, cleanup)

	httpClient := ProvideHTTPClient(cfg)
	registry := ProvideMetricsRegistry()
	m := ProvideMetrics(cfg, registry)
	bus := ProvideEventBus(zapLog)

	// Outbound adapters
	orders := ProvideOrderRepository(db)
	gateways := ProvideGatewayRegistry(cfg, httpClient, m, zapLog)
	archive, err := ProvideReportArchive(cfg, zapLog)
	if err != nil {
		return nil, fmt.Errorf("init report archive: %w", err)
	}

	// Domains
	paymentDomain := ProvidePaymentDomain(orders, gateways, zapLog)
	reconcileDomain := ProvideReconcileDomain(cfg, orders, gateways, ProvideEventPublisher(bus), archive, m, zapLog)
	app.scheduler = ProvideScheduler(cfg, reconcileDomain, zapLog)

	// HTTP
	app.router = NewRouter(RouterDeps{
		Config:      cfg,
		Logger:      log,
		Metrics:     m,
		Registry:    registry,
		Payment:     ginadapter.NewPaymentAdapter(paymentDomain),
		Reconcile:   ginadapter.NewReconcileAdapter(reconcileDomain),
		Health:      ginadapter.NewHealthAdapter(gateways, app.scheduler),
		Tokens:      ProvideTokenValidator(cfg),
		Idempotency: ProvideIdempotencyStore(redisClient),
	})

	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Scheduler returns the periodic reconciliation caller.
func (a *App) Scheduler() *reconcile.Scheduler {
	return a.scheduler
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.zapLogger
}

// Stop flushes traces and releases resources.
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	a.runCleanups()
	return errors.Join(errs...)
}

// runCleanups releases resources in reverse acquisition order.
func (a *App) runCleanups() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

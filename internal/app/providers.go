package app

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/domain/reconcile"

	// Inbound adapters
	ginadapter "github.com/botmarket/server/internal/adapter/inbound/gin"

	// Ports
	"github.com/botmarket/server/internal/port/outbound"

	// Outbound adapters
	"github.com/botmarket/server/internal/adapter/outbound/auth"
	"github.com/botmarket/server/internal/adapter/outbound/gateway"
	"github.com/botmarket/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/botmarket/server/internal/adapter/outbound/redis"
	s3adapter "github.com/botmarket/server/internal/adapter/outbound/s3"

	// Infrastructure
	"github.com/botmarket/server/internal/infra/cache"
	"github.com/botmarket/server/internal/infra/config"
	"github.com/botmarket/server/internal/infra/database"
	"github.com/botmarket/server/internal/infra/events"
	"github.com/botmarket/server/internal/infra/httpclient"

	// Utils
	"github.com/botmarket/server/internal/utils/logger"
	"github.com/botmarket/server/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideZapLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideMetricsRegistry,
	ProvideMetrics,
	ProvideEventBus,
)

// ProvideLogger creates the HTTP layer logger.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates the zap logger used by domains and adapters.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideDatabase opens the order store. database.New migrates it when configured.
func ProvideDatabase(cfg *config.Config, zapLog *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database, zapLog)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional; on failure
// the service runs without idempotent checkout.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without idempotency", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideHTTPClient creates the shared HTTP client for gateway calls.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideMetricsRegistry creates the registry served on /metrics.
func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the application metrics.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewWithRegisterer(cfg.Metrics.Namespace, reg)
}

// ProvideEventBus creates the domain event bus with its subscribers.
func ProvideEventBus(zapLog *zap.Logger) *events.Bus {
	bus := events.NewBus(zapLog)
	registerEventHandlers(bus, zapLog)
	return bus
}

// ===== Outbound Adapter Providers =====

// OutboundSet provides outbound adapters.
var OutboundSet = wire.NewSet(
	ProvideOrderRepository,
	ProvideGatewayRegistry,
	wire.Bind(new(outbound.GatewayRegistryPort), new(*gateway.Registry)),
	ProvideIdempotencyStore,
	ProvideReportArchive,
	ProvideTokenValidator,
	ProvideEventPublisher,
)

// ProvideOrderRepository creates the order repository.
func ProvideOrderRepository(db *gorm.DB) outbound.OrderRepositoryPort {
	return postgres.NewOrderAdapter(db)
}

// ProvideGatewayRegistry registers a client for every configured provider.
func ProvideGatewayRegistry(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, zapLog *zap.Logger) *gateway.Registry {
	deps := gateway.Deps{
		HTTPClient: httpClient,
		Metrics:    m,
		Logger:     zapLog,
	}
	prefix := cfg.Reconcile.LocalReferencePrefix

	registry := gateway.NewRegistry()
	if gw := cfg.Gateways.Aggregator; gw.Enabled() {
		registry.Register(gateway.NewAggregatorA(gatewayConfig(gw, prefix), deps))
	}
	if gw := cfg.Gateways.Pix; gw.Enabled() {
		registry.Register(gateway.NewPixOnlyB(gatewayConfig(gw, prefix), deps))
	}
	if gw := cfg.Gateways.Card; gw.Enabled() {
		if gw.UseStripe {
			registry.Register(gateway.NewStripeCard(gatewayConfig(gw, prefix), deps))
		} else {
			registry.Register(gateway.NewCardGeneric(gatewayConfig(gw, prefix), deps))
		}
	}

	for _, c := range registry.List() {
		zapLog.Info("payment provider registered", zap.String("provider", c.Provider().String()))
	}
	return registry
}

func gatewayConfig(c config.GatewayConfig, localPrefix string) gateway.Config {
	return gateway.Config{
		BaseURL:         c.BaseURL,
		Token:           c.Token,
		TokenURL:        c.TokenURL,
		ClientID:        c.ClientID,
		ClientSecret:    c.ClientSecret,
		Scopes:          c.Scopes,
		Currency:        c.Currency,
		SuccessURL:      c.SuccessURL,
		CancelURL:       c.CancelURL,
		NotificationURL: c.NotificationURL,
		ProbePath:       c.ProbePath,
		ProbeTimeout:    c.ProbeTimeout,
		Breaker: gateway.BreakerConfig{
			FailureThreshold: c.Breaker.FailureThreshold,
			Interval:         c.Breaker.Interval,
			Timeout:          c.Breaker.Timeout,
		},
		UseStripe:            c.UseStripe,
		LocalReferencePrefix: localPrefix,
	}
}

// ProvideIdempotencyStore creates the idempotency store, or nil without Redis.
func ProvideIdempotencyStore(client goredis.UniversalClient) outbound.IdempotencyStorePort {
	if client == nil {
		return nil
	}
	return redisadapter.NewIdempotencyStore(client)
}

// ProvideReportArchive creates the reconciliation report archive, or nil when disabled.
func ProvideReportArchive(cfg *config.Config, zapLog *zap.Logger) (outbound.ReportArchivePort, error) {
	if !cfg.Archive.Enabled() {
		return nil, nil
	}
	client, err := s3adapter.NewClient(context.Background(), &cfg.Archive)
	if err != nil {
		return nil, err
	}
	zapLog.Info("reconciliation reports archived", zap.String("bucket", cfg.Archive.Bucket))
	return s3adapter.NewReportArchiveAdapter(client, cfg.Archive.Bucket, cfg.Archive.Prefix), nil
}

// ProvideTokenValidator creates the caller token validator, or nil when no
// secret is configured.
func ProvideTokenValidator(cfg *config.Config) outbound.TokenValidatorPort {
	if cfg.Auth.JWTSecret == "" {
		return nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
}

// ProvideEventPublisher exposes the event bus to the domains.
func ProvideEventPublisher(bus *events.Bus) outbound.EventPublisherPort {
	return newEventBusPublisher(bus)
}

// ===== Domain Providers =====

// DomainSet provides domain services.
var DomainSet = wire.NewSet(
	ProvidePaymentDomain,
	ProvideReconcileDomain,
	ProvideScheduler,
)

// ProvidePaymentDomain creates the checkout domain.
func ProvidePaymentDomain(orders outbound.OrderRepositoryPort, gateways outbound.GatewayRegistryPort, zapLog *zap.Logger) payment.PaymentDomain {
	return payment.NewPaymentDomain(orders, gateways, zapLog.Named("payment"))
}

// ProvideReconcileDomain creates the reconciliation driver.
func ProvideReconcileDomain(
	cfg *config.Config,
	orders outbound.OrderRepositoryPort,
	gateways outbound.GatewayRegistryPort,
	publisher outbound.EventPublisherPort,
	archive outbound.ReportArchivePort,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) reconcile.ReconcileDomain {
	return reconcile.NewReconcileDomain(orders, gateways, publisher, archive, m, zapLog.Named("reconcile"),
		reconcile.WithLocalReferencePrefix(cfg.Reconcile.LocalReferencePrefix),
	)
}

// ProvideScheduler creates the periodic reconciliation caller.
func ProvideScheduler(cfg *config.Config, domain reconcile.ReconcileDomain, zapLog *zap.Logger) *reconcile.Scheduler {
	return reconcile.NewScheduler(domain, cfg.Reconcile.Interval, zapLog.Named("scheduler"))
}

// ===== Handler Providers =====

// HandlerSet provides HTTP handlers and the router.
var HandlerSet = wire.NewSet(
	ginadapter.NewPaymentAdapter,
	ginadapter.NewReconcileAdapter,
	ginadapter.NewHealthAdapter,
	wire.Bind(new(ginadapter.SummarySource), new(*reconcile.Scheduler)),
	wire.Struct(new(RouterDeps), "*"),
	NewRouter,
)

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	OutboundSet,
	DomainSet,
	HandlerSet,
)

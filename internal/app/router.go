package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ginadapter "github.com/botmarket/server/internal/adapter/inbound/gin"
	"github.com/botmarket/server/internal/infra/config"
	"github.com/botmarket/server/internal/port/inbound"
	"github.com/botmarket/server/internal/port/outbound"
	"github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/logger"
	"github.com/botmarket/server/internal/utils/metrics"
	"github.com/botmarket/server/internal/utils/middleware"
)

// RouterDeps holds everything the HTTP router is assembled from.
type RouterDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	Payment   inbound.PaymentHttpPort
	Reconcile inbound.ReconcileHttpPort
	Health    inbound.HealthHttpPort

	// Optional collaborators; nil disables the feature.
	Tokens      outbound.TokenValidatorPort
	Idempotency outbound.IdempotencyStorePort
}

// NewRouter creates and configures the Gin router.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.Logging(d.Logger, "/health", "/metrics"))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(d.Config.CORS.AllowedOrigins)))

	r.GET("/health", d.Health.Health)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")

	idempotency := middleware.Idempotency(d.Idempotency, middleware.IdempotencyConfig{
		TTL:     d.Config.Idempotency.TTL,
		LockTTL: d.Config.Idempotency.LockTTL,
	})

	if d.Tokens != nil {
		// Anonymous checkout stays allowed; a valid token scopes idempotency keys to the caller.
		ginadapter.RegisterPaymentRoutes(v1, d.Payment, idempotency, middleware.OptionalAuth(d.Tokens))

		guards := []gin.HandlerFunc{middleware.RequireAuth(d.Tokens)}
		if scope := d.Config.Auth.ReconcileScope; scope != "" {
			guards = append(guards, middleware.RequireScope(scope))
		}
		ginadapter.RegisterReconcileRoutes(v1, d.Reconcile, guards...)
	} else {
		ginadapter.RegisterPaymentRoutes(v1, d.Payment, idempotency)

		d.Logger.Warn("auth.jwt_secret not set, on-demand reconciliation disabled")
		ginadapter.RegisterReconcileRoutes(v1, d.Reconcile, authNotConfigured)
	}

	return r
}

func authNotConfigured(c *gin.Context) {
	appErr := errors.ServiceUnavailable("caller authentication is not configured")
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}

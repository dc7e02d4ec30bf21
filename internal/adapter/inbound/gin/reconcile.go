package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/domain/reconcile"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/inbound"
	apperrors "github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/logger"
	"github.com/botmarket/server/internal/utils/requestctx"
)

// reconcileAdapter implements inbound.ReconcileHttpPort.
type reconcileAdapter struct {
	domain reconcile.ReconcileDomain
}

// NewReconcileAdapter creates a new reconciliation HTTP adapter.
func NewReconcileAdapter(domain reconcile.ReconcileDomain) inbound.ReconcileHttpPort {
	return &reconcileAdapter{domain: domain}
}

// RegisterReconcileRoutes registers reconciliation routes behind the given guards.
func RegisterReconcileRoutes(r *gin.RouterGroup, adapter inbound.ReconcileHttpPort, guards ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, guards...), adapter.Reconcile)
	r.POST("/reconcile", handlers...)
}

func (a *reconcileAdapter) Reconcile(c *gin.Context) {
	var req model.ReconcileRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.BadRequest(err.Error()))
			return
		}
	}
	for provider := range req.Credentials {
		if !provider.IsValid() {
			respondError(c, apperrors.ValidationError("unknown provider "+provider.String()))
			return
		}
	}

	ctx := c.Request.Context()
	logger.FromContext(ctx).Info("reconciliation requested",
		"caller", requestctx.Caller(ctx),
		"orders", len(req.OrderIDs),
	)

	summary, err := a.domain.Reconcile(ctx, &req)
	if err != nil {
		logger.FromContext(ctx).Error("reconciliation failed", logger.Err(err))
		respondError(c, apperrors.Internal("reconciliation failed", err))
		return
	}

	c.JSON(http.StatusOK, summary)
}

package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/inbound"
	"github.com/botmarket/server/internal/port/outbound"
)

// SummarySource exposes the most recent scheduled reconciliation pass.
type SummarySource interface {
	LastSummary() *model.ReconcileSummary
}

// healthAdapter implements inbound.HealthHttpPort.
type healthAdapter struct {
	gateways outbound.GatewayRegistryPort
	summary  SummarySource
}

// NewHealthAdapter creates a new health HTTP adapter. summary may be nil.
func NewHealthAdapter(gateways outbound.GatewayRegistryPort, summary SummarySource) inbound.HealthHttpPort {
	return &healthAdapter{gateways: gateways, summary: summary}
}

func (a *healthAdapter) Health(c *gin.Context) {
	resp := model.HealthResponse{Status: "ok"}
	for _, gw := range a.gateways.List() {
		resp.Providers = append(resp.Providers, gw.Provider())
	}
	if a.summary != nil {
		if last := a.summary.LastSummary(); last != nil {
			resp.LastReconcile = &model.ReconcileDigest{
				ID:         last.ID,
				FinishedAt: last.FinishedAt,
				Examined:   last.Examined,
				Updated:    last.Updated,
				Failures:   last.Failures,
				Cancelled:  last.Cancelled,
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

package inbound

import "github.com/gin-gonic/gin"

// ReconcileHttpPort defines HTTP handler interface for reconciliation.
type ReconcileHttpPort interface {
	// Reconcile handles POST /reconcile
	// Runs one pass over the requested orders, or every pending order.
	Reconcile(c *gin.Context)
}

// HealthHttpPort defines HTTP handler interface for service health.
type HealthHttpPort interface {
	// Health handles GET /health
	Health(c *gin.Context)
}

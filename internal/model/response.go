package model

import "time"

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string            `json:"status"`
	Providers     []PaymentProvider `json:"providers"`
	LastReconcile *ReconcileDigest  `json:"last_reconcile,omitempty"`
}

// ReconcileDigest is the counter-only view of a reconciliation pass.
type ReconcileDigest struct {
	ID         string    `json:"id"`
	FinishedAt time.Time `json:"finished_at"`
	Examined   int       `json:"examined"`
	Updated    int       `json:"updated"`
	Failures   int       `json:"failures"`
	Cancelled  bool      `json:"cancelled"`
}

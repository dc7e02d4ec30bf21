package model

import "time"

// ReconcileOutcome classifies what happened to one order during a pass.
type ReconcileOutcome string

const (
	ReconcileUpdated            ReconcileOutcome = "updated"
	ReconcileUnchanged          ReconcileOutcome = "unchanged"
	ReconcileNotFound           ReconcileOutcome = "not_found"
	ReconcileUnavailable        ReconcileOutcome = "unavailable"
	ReconcileInvalidCredentials ReconcileOutcome = "invalid_credentials"
	ReconcileSkipped            ReconcileOutcome = "skipped"
	ReconcileError              ReconcileOutcome = "error"
)

// IsFailure returns true if the outcome counts as a failure in the summary.
func (o ReconcileOutcome) IsFailure() bool {
	switch o {
	case ReconcileUpdated, ReconcileUnchanged, ReconcileSkipped:
		return false
	}
	return true
}

// ReconcileRequest selects the orders of a pass and optional per-provider credentials.
// An empty OrderIDs means every pending order.
type ReconcileRequest struct {
	OrderIDs    []string                   `json:"order_ids,omitempty"`
	Credentials map[PaymentProvider]string `json:"credentials,omitempty"`
}

// OrderReconcileResult is the per-order line of a reconciliation summary.
type OrderReconcileResult struct {
	OrderID         string           `json:"order_id"`
	Provider        PaymentProvider  `json:"provider"`
	PreviousStatus  OrderStatus      `json:"previous_status"`
	Status          OrderStatus      `json:"status"`
	Canonical       CanonicalStatus  `json:"canonical,omitempty"`
	Outcome         ReconcileOutcome `json:"outcome"`
	RemoteReference string           `json:"remote_reference,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// ReconcileSummary reports a reconciliation pass.
type ReconcileSummary struct {
	ID         string                 `json:"id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Examined   int                    `json:"examined"`
	Updated    int                    `json:"updated"`
	Failures   int                    `json:"failures"`
	Cancelled  bool                   `json:"cancelled"`
	Unhealthy  []PaymentProvider      `json:"unhealthy_providers,omitempty"`
	Results    []OrderReconcileResult `json:"results"`
}

// Record appends a per-order result and updates the counters.
func (s *ReconcileSummary) Record(r OrderReconcileResult) {
	s.Examined++
	if r.Outcome == ReconcileUpdated {
		s.Updated++
	}
	if r.Outcome.IsFailure() {
		s.Failures++
	}
	s.Results = append(s.Results, r)
}

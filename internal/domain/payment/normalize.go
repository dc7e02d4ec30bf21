package payment

import (
	"strings"

	"github.com/botmarket/server/internal/model"
)

// Extraction rules, tried in order; the first non-empty value wins.
var (
	statusFields  = nested("status", "payment_status", "order_status", "state", "paymentStatus")
	paidAtFields  = nested("paid_at", "paidAt", "paid_at_date", "payment_date")
	displayFields = nested("status_display", "statusDisplay")
)

// Signals is everything the normalizer read from one provider payload.
type Signals struct {
	RawStatus   string
	StatusField string
	PaidAt      string
	PaidAtField string
	Display     string
	DisplayPaid bool
}

// Inspect extracts the status-bearing signals from a provider payload.
// It accepts a decoded JSON object or raw JSON bytes and never panics;
// anything that is not a JSON object yields empty signals.
func Inspect(raw any) Signals {
	obj, ok := asObject(raw)
	if !ok {
		return Signals{}
	}

	var s Signals
	s.RawStatus, s.StatusField = first(obj, statusFields)

	s.PaidAt, s.PaidAtField = firstWhere(obj, paidAtFields, paidAtPresent)

	s.Display, _ = first(obj, displayFields)
	s.DisplayPaid = displaySignalsPaid(s.Display)
	return s
}

// PaymentEvidence returns true if a paid-at timestamp or display text signals payment.
func (s Signals) PaymentEvidence() bool {
	return s.PaidAt != "" || s.DisplayPaid
}

// Canonical applies the decision rule: payment evidence beats the raw status,
// then the vocabulary table, then pending.
func (s Signals) Canonical() model.CanonicalStatus {
	if s.PaymentEvidence() {
		return model.CanonicalApproved
	}
	status, _ := LookupVocabulary(s.RawStatus)
	return status
}

// Normalize maps an arbitrary provider payload to a canonical status.
// Unparseable or unrecognised input yields pending.
func Normalize(raw any) model.CanonicalStatus {
	return Inspect(raw).Canonical()
}

// paidAtPresent rejects the placeholder values providers use for "not paid yet".
func paidAtPresent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "null", "false", "0":
		return false
	}
	return true
}

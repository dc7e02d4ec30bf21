package payment

import (
	"strings"

	"github.com/botmarket/server/internal/model"
)

// DefaultLocalReferencePrefix marks remote references that were assigned locally
// as placeholders and are unknown to any provider.
const DefaultLocalReferencePrefix = "local_"

// Matcher resolves a local order to one of a provider's records.
type Matcher struct {
	localPrefix string
}

// NewMatcher creates a matcher. An empty prefix uses DefaultLocalReferencePrefix.
func NewMatcher(localPrefix string) *Matcher {
	if localPrefix == "" {
		localPrefix = DefaultLocalReferencePrefix
	}
	return &Matcher{localPrefix: localPrefix}
}

// RemoteReference returns the order's reference if it can identify a provider record.
func (m *Matcher) RemoteReference(order *model.Order) string {
	ref := strings.TrimSpace(order.RemoteReference)
	if ref == "" || ref == order.ID || strings.HasPrefix(ref, m.localPrefix) {
		return ""
	}
	return ref
}

// ResolvedReference returns the reference to report for a matched record.
// A usable reference on the order is never replaced; only an order without
// one adopts the record's id.
func (m *Matcher) ResolvedReference(order *model.Order, rec *model.GatewayPaymentRecord) string {
	if ref := m.RemoteReference(order); ref != "" {
		return ref
	}
	return RemoteID(rec.Raw, order.ID)
}

// Match returns the candidate that belongs to the order, or nil.
//
// A usable remote reference is compared against every id-like field first.
// Otherwise candidates are filtered by email, exact before loose, and ties
// are broken by payment evidence and then recency.
func (m *Matcher) Match(order *model.Order, candidates []*model.GatewayPaymentRecord) *model.GatewayPaymentRecord {
	if order == nil || len(candidates) == 0 {
		return nil
	}

	if ref := m.RemoteReference(order); ref != "" {
		for _, c := range candidates {
			if c != nil && c.HasID(ref) {
				return c
			}
		}
	}

	email := strings.TrimSpace(order.CustomerEmail)
	if email == "" {
		return nil
	}

	matches := filterRecords(candidates, func(c *model.GatewayPaymentRecord) bool {
		return sameEmail(c.Email, email)
	})
	if len(matches) == 0 {
		matches = filterRecords(candidates, func(c *model.GatewayPaymentRecord) bool {
			return looseEmail(c.Email, email)
		})
	}

	return pickBest(matches)
}

func filterRecords(records []*model.GatewayPaymentRecord, keep func(*model.GatewayPaymentRecord) bool) []*model.GatewayPaymentRecord {
	var out []*model.GatewayPaymentRecord
	for _, r := range records {
		if r != nil && keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// pickBest prefers records showing payment, then the newest by creation time.
// Without timestamps on every record, list order is kept since providers
// return newest first.
func pickBest(records []*model.GatewayPaymentRecord) *model.GatewayPaymentRecord {
	switch len(records) {
	case 0:
		return nil
	case 1:
		return records[0]
	}

	paid := filterRecords(records, func(r *model.GatewayPaymentRecord) bool {
		return r.Status == model.CanonicalApproved
	})
	if len(paid) > 0 {
		records = paid
	}

	return newest(records)
}

func newest(records []*model.GatewayPaymentRecord) *model.GatewayPaymentRecord {
	best := records[0]
	for _, r := range records {
		if r.CreatedAt == nil {
			return records[0]
		}
		if r.CreatedAt.After(*best.CreatedAt) {
			best = r
		}
	}
	return best
}

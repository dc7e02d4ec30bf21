package payment

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/botmarket/server/internal/model"
)

var (
	// idFields are compared against an order's remote reference.
	idFields = nested("internal_id", "id", "external_id", "checkout_id", "payment_id", "order_id", "transaction_id")

	emailFields = append(
		nested("email", "customer_email", "customerEmail", "payer_email", "payerEmail"),
		at("customer", "email"),
		at("payer", "email"),
		at("buyer", "email"),
		at("data", "customer", "email"),
	)

	createdAtFields = nested("created_at", "createdAt", "date_created", "created", "creation_date")
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewRecord decodes one provider object into a gateway payment record.
func NewRecord(raw map[string]any) *model.GatewayPaymentRecord {
	signals := Inspect(raw)
	email, _ := first(raw, emailFields)

	return &model.GatewayPaymentRecord{
		IDs:           all(raw, idFields),
		Email:         email,
		CreatedAt:     createdAt(raw),
		RawStatus:     signals.RawStatus,
		PaidAt:        signals.PaidAt,
		StatusDisplay: signals.Display,
		Status:        signals.Canonical(),
		Pix:           ExtractPix(raw),
		Raw:           raw,
	}
}

// NewRecords decodes a list of provider objects, skipping empty ones.
func NewRecords(raws []map[string]any) []*model.GatewayPaymentRecord {
	records := make([]*model.GatewayPaymentRecord, 0, len(raws))
	for _, raw := range raws {
		if len(raw) == 0 {
			continue
		}
		records = append(records, NewRecord(raw))
	}
	return records
}

// createdAt parses the provider creation timestamp, accepting RFC 3339 strings
// and unix seconds or milliseconds.
func createdAt(raw map[string]any) *time.Time {
	v, _ := first(raw, createdAtFields)
	if v == "" {
		return nil
	}

	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return nil
	}
	if n > 1e12 {
		t := time.UnixMilli(int64(n)).UTC()
		return &t
	}
	t := time.Unix(int64(n), 0).UTC()
	return &t
}

// sameEmail compares two addresses ignoring case and surrounding whitespace.
func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// looseEmail tolerates provider quirks by accepting containment in either direction.
func looseEmail(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// LooksLikeRecord reports whether an object carries an identifier or a
// customer email, as opposed to an envelope or an error body.
func LooksLikeRecord(raw map[string]any) bool {
	if len(raw) == 0 {
		return false
	}
	if len(all(raw, recordKeyFields)) > 0 {
		return true
	}
	email, _ := first(raw, topLevel("email", "customer_email", "customerEmail", "payer_email", "payerEmail"))
	return email != ""
}

// CarriesStatus reports whether an object states a payment status, either as
// a known status spelling or as payment evidence.
func CarriesStatus(raw map[string]any) bool {
	if len(raw) == 0 {
		return false
	}
	s := Inspect(raw)
	if s.PaymentEvidence() {
		return true
	}
	_, known := LookupVocabulary(s.RawStatus)
	return known
}

var recordKeyFields = topLevel("internal_id", "id", "external_id", "checkout_id", "payment_id", "order_id", "transaction_id")

// checkoutURLFields are the aliases of a hosted checkout link.
var checkoutURLFields = nested(
	"checkout_url", "checkoutUrl", "payment_url", "paymentUrl", "redirect_url", "redirectUrl",
	"url", "link", "init_point", "ticket_url", "hosted_url",
)

// CheckoutURL returns the hosted checkout link of a creation response.
func CheckoutURL(raw map[string]any) string {
	v, _ := firstWhere(raw, checkoutURLFields, func(s string) bool {
		return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	})
	return v
}

// RemoteID returns the first id-like value of raw that is not the local order id.
func RemoteID(raw map[string]any, localID string) string {
	for _, id := range all(raw, idFields) {
		if id != localID {
			return id
		}
	}
	return ""
}

package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botmarket/server/internal/model"
)

func TestLookupVocabulary(t *testing.T) {
	t.Run("Every spelling maps in any case", func(t *testing.T) {
		for raw, want := range vocabulary {
			capitalized := raw[:1] + strings.ToLower(raw[1:])
			for _, variant := range []string{raw, strings.ToLower(raw), " " + capitalized + " "} {
				got, ok := LookupVocabulary(variant)
				assert.True(t, ok, variant)
				assert.Equal(t, want, got, variant)
			}
		}
	})

	t.Run("Accents and separators are folded", func(t *testing.T) {
		tests := map[string]model.CanonicalStatus{
			"Concluído":            model.CanonicalApproved,
			"aguardando pagamento": model.CanonicalPending,
			"aguardando-pagamento": model.CanonicalPending,
			"Em análise":           model.CanonicalPending,
			"in process":           model.CanonicalPending,
		}
		for raw, want := range tests {
			got, ok := LookupVocabulary(raw)
			assert.True(t, ok, raw)
			assert.Equal(t, want, got, raw)
		}
	})

	t.Run("Unknown spellings are pending", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "mystery", "PAID_MAYBE", "error"} {
			got, ok := LookupVocabulary(raw)
			assert.False(t, ok, raw)
			assert.Equal(t, model.CanonicalPending, got, raw)
		}
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want model.CanonicalStatus
	}{
		{"Top-level status", map[string]any{"status": "approved"}, model.CanonicalApproved},
		{"Alternate status field", map[string]any{"payment_status": "Recusado"}, model.CanonicalRejected},
		{"Status inside data", map[string]any{"data": map[string]any{"state": "CANCELED"}}, model.CanonicalCancelled},
		{"Status inside payment", map[string]any{"payment": map[string]any{"paymentStatus": "reembolsado"}}, model.CanonicalRefunded},
		{"Top level wins over containers", map[string]any{"status": "pending", "data": map[string]any{"status": "paid"}}, model.CanonicalPending},
		{"Expired is cancelled", map[string]any{"status": "EXPIRED"}, model.CanonicalCancelled},
		{"Paid-at overrides pending", map[string]any{"status": "PENDING", "paid_at": "2024-01-01"}, model.CanonicalApproved},
		{"Paid-at overrides rejected", map[string]any{"status": "failed", "paidAt": "2024-01-01T10:00:00Z"}, model.CanonicalApproved},
		{"Nested paid-at", map[string]any{"status": "WAITING", "order": map[string]any{"payment_date": "2024-03-02"}}, model.CanonicalApproved},
		{"Numeric paid-at", map[string]any{"status": "pending", "paid_at": float64(1704067200)}, model.CanonicalApproved},
		{"Null paid-at string", map[string]any{"status": "PENDING", "paid_at": "null"}, model.CanonicalPending},
		{"Null paid-at value", map[string]any{"status": "PENDING", "paid_at": nil}, model.CanonicalPending},
		{"Empty paid-at", map[string]any{"status": "PENDING", "paid_at": "  "}, model.CanonicalPending},
		{"False paid-at", map[string]any{"status": "PENDING", "paid_at": false}, model.CanonicalPending},
		{"Null placeholder does not hide a nested value", map[string]any{"paid_at": "null", "data": map[string]any{"paid_at": "2024-01-01"}}, model.CanonicalApproved},
		{"Display text signals payment", map[string]any{"status": "PENDING", "status_display": "Pagamento aprovado"}, model.CanonicalApproved},
		{"Negated display text does not", map[string]any{"status": "PENDING", "statusDisplay": "Não pago"}, model.CanonicalPending},
		{"Negation apart from the marker", map[string]any{"status": "PENDING", "status_display": "Não foi pago"}, model.CanonicalPending},
		{"English negation apart from the marker", map[string]any{"status_display": "Not yet paid"}, model.CanonicalPending},
		{"Display text that is still waiting", map[string]any{"status_display": "Aguardando pagamento"}, model.CanonicalPending},
		{"Raw JSON bytes", []byte(`{"data":{"status":"PAGO"}}`), model.CanonicalApproved},
		{"Raw JSON string", `{"status":"denied"}`, model.CanonicalRejected},
		{"Unknown status", map[string]any{"status": "on_hold"}, model.CanonicalPending},
		{"No status at all", map[string]any{"id": "x"}, model.CanonicalPending},
		{"Non-object JSON", `[1,2,3]`, model.CanonicalPending},
		{"Garbage", []byte(`{{{`), model.CanonicalPending},
		{"Nil", nil, model.CanonicalPending},
		{"Unsupported type", 42, model.CanonicalPending},
		{"Status of the wrong type", map[string]any{"status": map[string]any{"code": 1}}, model.CanonicalPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, Normalize(tt.raw))
			})
		})
	}
}

func TestInspect(t *testing.T) {
	s := Inspect(map[string]any{
		"data": map[string]any{
			"status":  "PENDING",
			"paid_at": "2024-01-01",
		},
		"status_display": "Em aberto",
	})

	assert.Equal(t, "PENDING", s.RawStatus)
	assert.Equal(t, "data.status", s.StatusField)
	assert.Equal(t, "2024-01-01", s.PaidAt)
	assert.Equal(t, "data.paid_at", s.PaidAtField)
	assert.Equal(t, "Em aberto", s.Display)
	assert.False(t, s.DisplayPaid)
	assert.True(t, s.PaymentEvidence())
}

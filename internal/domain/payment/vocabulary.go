package payment

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/botmarket/server/internal/model"
)

// vocabulary maps folded provider status spellings, English and Portuguese, to canonical statuses.
var vocabulary = map[string]model.CanonicalStatus{
	// approved
	"PAID":       model.CanonicalApproved,
	"APPROVED":   model.CanonicalApproved,
	"COMPLETED":  model.CanonicalApproved,
	"COMPLETE":   model.CanonicalApproved,
	"SUCCEEDED":  model.CanonicalApproved,
	"SUCCESS":    model.CanonicalApproved,
	"SUCCESSFUL": model.CanonicalApproved,
	"CONFIRMED":  model.CanonicalApproved,
	"SETTLED":    model.CanonicalApproved,
	"CAPTURED":   model.CanonicalApproved,
	"PAGO":       model.CanonicalApproved,
	"PAGA":       model.CanonicalApproved,
	"APROVADO":   model.CanonicalApproved,
	"APROVADA":   model.CanonicalApproved,
	"CONCLUIDO":  model.CanonicalApproved,
	"CONCLUIDA":  model.CanonicalApproved,
	"CONFIRMADO": model.CanonicalApproved,
	"CONFIRMADA": model.CanonicalApproved,
	"FINALIZADO": model.CanonicalApproved,
	"RECEBIDO":   model.CanonicalApproved,

	// pending
	"PENDING":              model.CanonicalPending,
	"WAITING":              model.CanonicalPending,
	"WAITING_PAYMENT":      model.CanonicalPending,
	"AWAITING_PAYMENT":     model.CanonicalPending,
	"PROCESSING":           model.CanonicalPending,
	"IN_PROCESS":           model.CanonicalPending,
	"CREATED":              model.CanonicalPending,
	"OPEN":                 model.CanonicalPending,
	"UNPAID":               model.CanonicalPending,
	"PENDENTE":             model.CanonicalPending,
	"AGUARDANDO":           model.CanonicalPending,
	"AGUARDANDO_PAGAMENTO": model.CanonicalPending,
	"PROCESSANDO":          model.CanonicalPending,
	"EM_PROCESSAMENTO":     model.CanonicalPending,
	"EM_ANALISE":           model.CanonicalPending,
	"CRIADO":               model.CanonicalPending,

	// rejected
	"REJECTED":  model.CanonicalRejected,
	"FAILED":    model.CanonicalRejected,
	"FAILURE":   model.CanonicalRejected,
	"DECLINED":  model.CanonicalRejected,
	"DENIED":    model.CanonicalRejected,
	"REFUSED":   model.CanonicalRejected,
	"RECUSADO":  model.CanonicalRejected,
	"RECUSADA":  model.CanonicalRejected,
	"REJEITADO": model.CanonicalRejected,
	"REJEITADA": model.CanonicalRejected,
	"NEGADO":    model.CanonicalRejected,
	"NEGADA":    model.CanonicalRejected,
	"FALHOU":    model.CanonicalRejected,
	"FALHA":     model.CanonicalRejected,

	// cancelled
	"CANCELLED": model.CanonicalCancelled,
	"CANCELED":  model.CanonicalCancelled,
	"VOIDED":    model.CanonicalCancelled,
	"VOID":      model.CanonicalCancelled,
	"EXPIRED":   model.CanonicalCancelled,
	"CANCELADO": model.CanonicalCancelled,
	"CANCELADA": model.CanonicalCancelled,
	"EXPIRADO":  model.CanonicalCancelled,
	"EXPIRADA":  model.CanonicalCancelled,

	// refunded
	"REFUNDED":    model.CanonicalRefunded,
	"REEMBOLSADO": model.CanonicalRefunded,
	"REEMBOLSADA": model.CanonicalRefunded,
	"ESTORNADO":   model.CanonicalRefunded,
	"ESTORNADA":   model.CanonicalRefunded,
	"DEVOLVIDO":   model.CanonicalRefunded,
}

// paidDisplayMarkers are folded substrings of display text that signal payment.
var paidDisplayMarkers = []string{
	"PAGO", "PAID", "APROVADO", "APPROVED", "CONCLUIDO", "COMPLETED", "CONFIRMADO", "CONFIRMED",
}

// unpaidDisplayMarkers veto a paid marker found in the same text, e.g. "Não pago".
var unpaidDisplayMarkers = []string{
	"UNPAID", "NOT PAID", "NAO PAGO", "NOT APPROVED", "NAO APROVADO", "NOT CONFIRMED", "NAO CONFIRMADO",
	"PENDING", "PENDENTE", "AGUARDANDO", "WAITING",
}

// negations are words that veto any paid marker in the same text, e.g. "Não foi pago".
var negations = map[string]bool{"NAO": true, "NOT": true, "NUNCA": true, "NEVER": true}

// fold upper-cases s and strips diacritics, so "Concluído" and "CONCLUIDO" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// vocabularyKey folds a raw status into a vocabulary key.
func vocabularyKey(raw string) string {
	key := fold(raw)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return key
}

// LookupVocabulary maps a raw provider status to a canonical status.
// Unknown or empty spellings return pending and false.
func LookupVocabulary(raw string) (model.CanonicalStatus, bool) {
	status, ok := vocabulary[vocabularyKey(raw)]
	if !ok {
		return model.CanonicalPending, false
	}
	return status, true
}

// displaySignalsPaid reports whether human display text says the payment went through.
func displaySignalsPaid(display string) bool {
	if display == "" {
		return false
	}
	text := fold(display)
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if negations[word] {
			return false
		}
	}
	for _, m := range unpaidDisplayMarkers {
		if strings.Contains(text, m) {
			return false
		}
	}
	for _, m := range paidDisplayMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

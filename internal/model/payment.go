package model

import "time"

// CanonicalStatus is the single interpretation of a gateway payment record.
type CanonicalStatus string

const (
	CanonicalPending   CanonicalStatus = "pending"
	CanonicalApproved  CanonicalStatus = "approved"
	CanonicalRejected  CanonicalStatus = "rejected"
	CanonicalCancelled CanonicalStatus = "cancelled"
	CanonicalRefunded  CanonicalStatus = "refunded"
)

// String returns the string representation of the status.
func (s CanonicalStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known canonical status.
func (s CanonicalStatus) IsValid() bool {
	switch s {
	case CanonicalPending, CanonicalApproved, CanonicalRejected, CanonicalCancelled, CanonicalRefunded:
		return true
	}
	return false
}

// OrderStatus maps the canonical status onto the local order status.
// The second return value is false when the status implies no transition.
func (s CanonicalStatus) OrderStatus() (OrderStatus, bool) {
	switch s {
	case CanonicalApproved:
		return OrderStatusCompleted, true
	case CanonicalRejected, CanonicalCancelled, CanonicalRefunded:
		// There is no local refunded status.
		return OrderStatusFailed, true
	default:
		return OrderStatusPending, false
	}
}

// PixPayload carries what the payer needs to settle a PIX charge.
type PixPayload struct {
	QRCodeImage string `json:"qr_code_image,omitempty"`
	CopyPaste   string `json:"copy_paste,omitempty"`
}

// IsEmpty returns true if neither a QR image nor a copy-paste code is present.
func (p *PixPayload) IsEmpty() bool {
	return p == nil || (p.QRCodeImage == "" && p.CopyPaste == "")
}

// GatewayPaymentRecord is a provider record decoded for one status query.
// It is never persisted or cached.
type GatewayPaymentRecord struct {
	IDs           []string
	Email         string
	CreatedAt     *time.Time
	RawStatus     string
	PaidAt        string
	StatusDisplay string
	Status        CanonicalStatus
	Pix           *PixPayload
	Raw           map[string]any
}

// PrimaryID returns the first id-like value of the record.
func (r *GatewayPaymentRecord) PrimaryID() string {
	if r == nil || len(r.IDs) == 0 {
		return ""
	}
	return r.IDs[0]
}

// HasID returns true if any id-like field equals id.
func (r *GatewayPaymentRecord) HasID(id string) bool {
	for _, v := range r.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Customer identifies the payer.
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// CreatePaymentRequest is the input of a checkout creation.
type CreatePaymentRequest struct {
	OrderID     string   `json:"order_id" binding:"required"`
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Customer    Customer `json:"customer"`
	ItemIDs     []int64  `json:"item_ids"`
	Description string   `json:"description,omitempty"`
	ReturnURL   string   `json:"return_url,omitempty"`
}

// CreatePaymentResult is the outcome of a checkout creation.
type CreatePaymentResult struct {
	Success             bool        `json:"success"`
	RemoteReference     string      `json:"remote_reference,omitempty"`
	Pix                 *PixPayload `json:"pix,omitempty"`
	CheckoutRedirectURL string      `json:"checkout_redirect_url,omitempty"`
	Error               string      `json:"error,omitempty"`
	ErrorCode           string      `json:"error_code,omitempty"`
}

// LookupOutcome classifies how a status lookup ended.
type LookupOutcome string

const (
	LookupResolved           LookupOutcome = "resolved"
	LookupNotFound           LookupOutcome = "not_found"
	LookupUnavailable        LookupOutcome = "unavailable"
	LookupInvalidCredentials LookupOutcome = "invalid_credentials"
)

// StatusLookup is the result of a gateway status query.
// Status is always set; it is pending unless the lookup resolved a record.
type StatusLookup struct {
	Status          CanonicalStatus `json:"status"`
	Outcome         LookupOutcome   `json:"outcome"`
	RemoteReference string          `json:"remote_reference,omitempty"`
	Err             error           `json:"-"`
}

// PaymentStatusResponse is the HTTP view of a status lookup.
type PaymentStatusResponse struct {
	OrderID         string          `json:"order_id"`
	Provider        PaymentProvider `json:"provider"`
	OrderStatus     OrderStatus     `json:"order_status"`
	Status          CanonicalStatus `json:"status"`
	Outcome         LookupOutcome   `json:"outcome"`
	RemoteReference string          `json:"remote_reference,omitempty"`
}

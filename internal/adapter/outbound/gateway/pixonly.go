package gateway

import (
	"strings"

	"github.com/botmarket/server/internal/model"
)

// pixOnlyB only issues PIX charges. Its creation response may carry the
// QR code inline or only a link to it.
var pixOnlyB = &dialect{
	provider:   model.ProviderPixOnlyB,
	createPath: "/v1/pix/charges",
	byIDPaths: []string{
		"/v1/pix/charges/%s",
		"/v1/charges/%s",
	},
	byEmailPaths: []string{
		"/v1/pix/charges?payer_email=%s",
		"/v1/charges?email=%s",
	},
	shape: func(body map[string]any, _ Config, _ *model.Order, req *model.CreatePaymentRequest) {
		payer := map[string]any{"email": strings.TrimSpace(req.Customer.Email)}
		if req.Customer.Name != "" {
			payer["name"] = req.Customer.Name
		}
		body["payment_method"] = "pix"
		body["payer"] = payer
	},
}

// NewPixOnlyB creates a client for the PIX-only processor.
func NewPixOnlyB(cfg Config, deps Deps) *Client {
	return newClient(pixOnlyB, cfg, deps)
}

package gateway

import "github.com/botmarket/server/internal/model"

// cardGeneric is a card processor with hosted checkout sessions.
var cardGeneric = &dialect{
	provider:   model.ProviderCardGeneric,
	createPath: "/v1/checkout/sessions",
	byIDPaths: []string{
		"/v1/checkout/sessions/%s",
		"/v1/payments/%s",
	},
	byEmailPaths: []string{
		"/v1/payments?email=%s",
	},
	shape: func(body map[string]any, cfg Config, order *model.Order, req *model.CreatePaymentRequest) {
		body["mode"] = "payment"
		body["client_reference_id"] = order.ID
		if url := returnURL(cfg, req); url != "" {
			body["success_url"] = url
		}
		if cfg.CancelURL != "" {
			body["cancel_url"] = cfg.CancelURL
		}
	},
}

// NewCardGeneric creates a client for the card processor.
func NewCardGeneric(cfg Config, deps Deps) *Client {
	return newClient(cardGeneric, cfg, deps)
}

package gateway

import "github.com/botmarket/server/internal/model"

// aggregatorA is a multi-method aggregator that offers PIX and card from
// one hosted checkout.
var aggregatorA = &dialect{
	provider:   model.ProviderAggregatorA,
	createPath: "/v1/checkouts",
	byIDPaths: []string{
		"/v1/checkouts/%s",
		"/v1/payments/%s",
		"/v1/transactions/%s",
	},
	byEmailPaths: []string{
		"/v1/checkouts?customer_email=%s",
		"/v1/payments?email=%s",
	},
	shape: func(body map[string]any, cfg Config, _ *model.Order, req *model.CreatePaymentRequest) {
		body["payment_methods"] = []string{"pix", "credit_card"}
		if url := returnURL(cfg, req); url != "" {
			body["success_url"] = url
		}
		if cfg.CancelURL != "" {
			body["cancel_url"] = cfg.CancelURL
		}
	},
}

// NewAggregatorA creates a client for the multi-method aggregator.
func NewAggregatorA(cfg Config, deps Deps) *Client {
	return newClient(aggregatorA, cfg, deps)
}

// returnURL prefers the per-request return URL over the configured one.
func returnURL(cfg Config, req *model.CreatePaymentRequest) string {
	if req.ReturnURL != "" {
		return req.ReturnURL
	}
	return cfg.SuccessURL
}

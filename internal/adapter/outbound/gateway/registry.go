package gateway

import (
	"fmt"
	"sort"
	"sync"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// Registry manages the gateway client of each payment provider.
type Registry struct {
	mu      sync.RWMutex
	clients map[model.PaymentProvider]outbound.GatewayPort
}

var _ outbound.GatewayRegistryPort = (*Registry)(nil)

// NewRegistry creates a registry holding the given clients.
func NewRegistry(clients ...outbound.GatewayPort) *Registry {
	r := &Registry{clients: make(map[model.PaymentProvider]outbound.GatewayPort)}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register registers a client, replacing any previous one for the same provider.
func (r *Registry) Register(c outbound.GatewayPort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Provider()] = c
}

// Get returns the client for a provider.
func (r *Registry) Get(provider model.PaymentProvider) (outbound.GatewayPort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payment.ErrProviderNotConfigured, provider)
	}
	return c, nil
}

// Has returns true if a client is registered for the provider.
func (r *Registry) Has(provider model.PaymentProvider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[provider]
	return ok
}

// List returns every registered client ordered by provider.
func (r *Registry) List() []outbound.GatewayPort {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]outbound.GatewayPort, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider() < out[j].Provider()
	})
	return out
}

package payment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// PaymentDomain defines the checkout-facing payment operations.
type PaymentDomain interface {
	// CreatePayment creates a provider checkout for a pending order.
	// Gateway failures are reported in the result; the error is reserved
	// for order lookup problems.
	CreatePayment(ctx context.Context, req *model.CreatePaymentRequest) (*model.CreatePaymentResult, error)

	// GetStatus queries the order's provider without persisting anything.
	GetStatus(ctx context.Context, orderID string) (*model.PaymentStatusResponse, error)
}

// paymentDomain implements PaymentDomain.
type paymentDomain struct {
	orders   outbound.OrderRepositoryPort
	gateways outbound.GatewayRegistryPort
	logger   *zap.Logger
}

// NewPaymentDomain creates a new payment domain service.
func NewPaymentDomain(
	orders outbound.OrderRepositoryPort,
	gateways outbound.GatewayRegistryPort,
	logger *zap.Logger,
) PaymentDomain {
	return &paymentDomain{
		orders:   orders,
		gateways: gateways,
		logger:   logger,
	}
}

func (d *paymentDomain) CreatePayment(ctx context.Context, req *model.CreatePaymentRequest) (*model.CreatePaymentResult, error) {
	order, err := d.pendingOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Customer.Email) == "" {
		req.Customer.Email = order.CustomerEmail
	}
	if len(req.ItemIDs) == 0 && len(order.ItemIDs) > 0 {
		req.ItemIDs = append([]int64(nil), order.ItemIDs...)
	}
	if err := ValidateCreatePayment(req); err != nil {
		return FailureResult(err), nil
	}

	gw, err := d.gateways.Get(order.PaymentProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, order.PaymentProvider)
	}

	result := gw.CreatePayment(ctx, order, req)
	if !result.Success {
		d.logger.Warn("create payment failed",
			zap.String("order_id", order.ID),
			zap.String("provider", order.PaymentProvider.String()),
			zap.String("error_code", result.ErrorCode),
			zap.String("error", result.Error),
		)
		return result, nil
	}

	if result.RemoteReference != "" && result.RemoteReference != order.RemoteReference {
		ref := result.RemoteReference
		if err := d.orders.UpdateOrder(ctx, order.ID, model.OrderUpdate{RemoteReference: &ref}); err != nil {
			d.logger.Warn("failed to store remote reference",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	d.logger.Info("payment created",
		zap.String("order_id", order.ID),
		zap.String("provider", order.PaymentProvider.String()),
		zap.String("remote_reference", result.RemoteReference),
		zap.Bool("pix", result.Pix != nil),
	)
	return result, nil
}

func (d *paymentDomain) GetStatus(ctx context.Context, orderID string) (*model.PaymentStatusResponse, error) {
	order, err := d.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	gw, err := d.gateways.Get(order.PaymentProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, order.PaymentProvider)
	}

	lookup := gw.GetStatus(ctx, order)
	if lookup.Err != nil {
		d.logger.Debug("status lookup unresolved",
			zap.String("order_id", order.ID),
			zap.String("outcome", string(lookup.Outcome)),
			zap.Error(lookup.Err),
		)
	}

	ref := lookup.RemoteReference
	if ref == "" {
		ref = order.RemoteReference
	}
	return &model.PaymentStatusResponse{
		OrderID:         order.ID,
		Provider:        order.PaymentProvider,
		OrderStatus:     order.Status,
		Status:          lookup.Status,
		Outcome:         lookup.Outcome,
		RemoteReference: ref,
	}, nil
}

func (d *paymentDomain) pendingOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := d.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.IsPending() {
		return nil, ErrOrderNotPending
	}
	return order, nil
}

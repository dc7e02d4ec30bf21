package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// --- Mock implementations ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetOrders(ctx context.Context) ([]*model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateOrder(ctx context.Context, id string, update model.OrderUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Provider() model.PaymentProvider {
	args := m.Called()
	return args.Get(0).(model.PaymentProvider)
}

func (m *MockGateway) CreatePayment(ctx context.Context, order *model.Order, req *model.CreatePaymentRequest) *model.CreatePaymentResult {
	args := m.Called(ctx, order, req)
	return args.Get(0).(*model.CreatePaymentResult)
}

func (m *MockGateway) GetStatus(ctx context.Context, order *model.Order) *model.StatusLookup {
	args := m.Called(ctx, order)
	return args.Get(0).(*model.StatusLookup)
}

func (m *MockGateway) Probe(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) WithCredential(token string) outbound.GatewayPort {
	args := m.Called(token)
	return args.Get(0).(outbound.GatewayPort)
}

type MockGatewayRegistry struct {
	mock.Mock
}

func (m *MockGatewayRegistry) Get(provider model.PaymentProvider) (outbound.GatewayPort, error) {
	args := m.Called(provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(outbound.GatewayPort), args.Error(1)
}

func (m *MockGatewayRegistry) Has(provider model.PaymentProvider) bool {
	args := m.Called(provider)
	return args.Bool(0)
}

func (m *MockGatewayRegistry) List() []outbound.GatewayPort {
	args := m.Called()
	return args.Get(0).([]outbound.GatewayPort)
}

// --- Test helpers ---

func newTestDomain() (*paymentDomain, *MockOrderRepository, *MockGatewayRegistry) {
	orders := new(MockOrderRepository)
	gateways := new(MockGatewayRegistry)
	d := NewPaymentDomain(orders, gateways, zap.NewNop()).(*paymentDomain)
	return d, orders, gateways
}

func testOrder() *model.Order {
	return &model.Order{
		ID:              "ord_1",
		CustomerEmail:   "ana@example.com",
		PaymentProvider: model.ProviderAggregatorA,
		Status:          model.OrderStatusPending,
		ItemIDs:         []int64{3},
	}
}

// --- Tests ---

func TestPaymentDomain_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores the provider reference", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		gw := new(MockGateway)
		order := testOrder()

		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(gw, nil)
		gw.On("CreatePayment", ctx, order, mock.MatchedBy(func(r *model.CreatePaymentRequest) bool {
			return r.Customer.Email == "ana@example.com" && len(r.ItemIDs) == 1
		})).Return(&model.CreatePaymentResult{Success: true, RemoteReference: "chk_1", CheckoutRedirectURL: "https://pay.example/chk_1"})
		orders.On("UpdateOrder", ctx, "ord_1", mock.MatchedBy(func(u model.OrderUpdate) bool {
			return u.Status == nil && u.RemoteReference != nil && *u.RemoteReference == "chk_1"
		})).Return(nil)

		res, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: 25})

		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "chk_1", res.RemoteReference)
		orders.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("Validation failures never reach the gateway", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		orders.On("GetOrder", ctx, "ord_1").Return(testOrder(), nil)

		res, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: -5})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Regexp(t, `(?i)invalid`, res.Error)
		gateways.AssertNotCalled(t, "Get", mock.Anything)
	})

	t.Run("Gateway failures are returned without a write", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		gw := new(MockGateway)
		order := testOrder()

		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(gw, nil)
		gw.On("CreatePayment", ctx, order, mock.Anything).Return(FailureResult(ErrInvalidCredentials))

		res, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: 25})

		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, CodeInvalidCredentials, res.ErrorCode)
		orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("A failed reference write does not fail the checkout", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		gw := new(MockGateway)
		order := testOrder()

		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(gw, nil)
		gw.On("CreatePayment", ctx, order, mock.Anything).Return(&model.CreatePaymentResult{Success: true, RemoteReference: "chk_1", CheckoutRedirectURL: "https://x"})
		orders.On("UpdateOrder", ctx, "ord_1", mock.Anything).Return(errors.New("db down"))

		res, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: 25})

		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("Missing order", func(t *testing.T) {
		d, orders, _ := newTestDomain()
		orders.On("GetOrder", ctx, "ord_x").Return(nil, nil)

		_, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_x", Amount: 25})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Settled order", func(t *testing.T) {
		d, orders, _ := newTestDomain()
		order := testOrder()
		order.Status = model.OrderStatusCompleted
		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)

		_, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: 25})
		assert.ErrorIs(t, err, ErrOrderNotPending)
	})

	t.Run("Unconfigured provider", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		orders.On("GetOrder", ctx, "ord_1").Return(testOrder(), nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(nil, errors.New("missing"))

		_, err := d.CreatePayment(ctx, &model.CreatePaymentRequest{OrderID: "ord_1", Amount: 25})
		assert.ErrorIs(t, err, ErrProviderNotConfigured)
	})
}

func TestPaymentDomain_GetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Reports the provider view without writing", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		gw := new(MockGateway)
		order := testOrder()

		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(gw, nil)
		gw.On("GetStatus", ctx, order).Return(&model.StatusLookup{
			Status:          model.CanonicalApproved,
			Outcome:         model.LookupResolved,
			RemoteReference: "chk_9",
		})

		resp, err := d.GetStatus(ctx, "ord_1")

		require.NoError(t, err)
		assert.Equal(t, model.CanonicalApproved, resp.Status)
		assert.Equal(t, model.OrderStatusPending, resp.OrderStatus)
		assert.Equal(t, "chk_9", resp.RemoteReference)
		orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unresolved lookups stay pending", func(t *testing.T) {
		d, orders, gateways := newTestDomain()
		gw := new(MockGateway)
		order := testOrder()
		order.RemoteReference = "chk_1"

		orders.On("GetOrder", ctx, "ord_1").Return(order, nil)
		gateways.On("Get", model.ProviderAggregatorA).Return(gw, nil)
		gw.On("GetStatus", ctx, order).Return(LookupFromError(ErrNotFound))

		resp, err := d.GetStatus(ctx, "ord_1")

		require.NoError(t, err)
		assert.Equal(t, model.CanonicalPending, resp.Status)
		assert.Equal(t, model.LookupNotFound, resp.Outcome)
		assert.Equal(t, "chk_1", resp.RemoteReference)
	})

	t.Run("Repository errors are returned", func(t *testing.T) {
		d, orders, _ := newTestDomain()
		orders.On("GetOrder", ctx, "ord_1").Return(nil, errors.New("db down"))

		_, err := d.GetStatus(ctx, "ord_1")
		assert.Error(t, err)
	})
}

package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/botmarket/server/internal/domain/payment"
	"github.com/botmarket/server/internal/infra/events"
	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
	"github.com/botmarket/server/internal/utils/metrics"
)

var tracer = otel.Tracer("github.com/botmarket/server/internal/domain/reconcile")

// Pass results reported to metrics.
const (
	passCompleted = "completed"
	passCancelled = "cancelled"
	passError     = "error"
)

// ReconcileDomain brings locally pending orders in line with their providers.
type ReconcileDomain interface {
	// Reconcile runs one pass. The error is reserved for failures that prevent
	// the pass from starting; per-order problems are reported in the summary.
	Reconcile(ctx context.Context, req *model.ReconcileRequest) (*model.ReconcileSummary, error)
}

// reconcileDomain implements ReconcileDomain.
type reconcileDomain struct {
	orders   outbound.OrderRepositoryPort
	gateways outbound.GatewayRegistryPort
	events   outbound.EventPublisherPort
	archive  outbound.ReportArchivePort
	metrics  *metrics.Metrics
	matcher  *payment.Matcher
	logger   *zap.Logger
}

// Option configures the reconciliation driver.
type Option func(*reconcileDomain)

// WithLocalReferencePrefix sets the prefix of locally assigned placeholder
// references, which lookups are allowed to replace.
func WithLocalReferencePrefix(prefix string) Option {
	return func(d *reconcileDomain) {
		d.matcher = payment.NewMatcher(prefix)
	}
}

// NewReconcileDomain creates a new reconciliation driver.
// publisher, archive and m may be nil.
func NewReconcileDomain(
	orders outbound.OrderRepositoryPort,
	gateways outbound.GatewayRegistryPort,
	publisher outbound.EventPublisherPort,
	archive outbound.ReportArchivePort,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) ReconcileDomain {
	d := &reconcileDomain{
		orders:   orders,
		gateways: gateways,
		events:   publisher,
		archive:  archive,
		metrics:  m,
		matcher:  payment.NewMatcher(""),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *reconcileDomain) Reconcile(ctx context.Context, req *model.ReconcileRequest) (*model.ReconcileSummary, error) {
	if req == nil {
		req = &model.ReconcileRequest{}
	}

	ctx, span := tracer.Start(ctx, "reconcile.pass")
	defer span.End()

	summary := &model.ReconcileSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   []model.OrderReconcileResult{},
	}

	orders, skipped, err := d.candidates(ctx, req)
	if err != nil {
		d.recordPass(passError, summary.StartedAt)
		span.RecordError(err)
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	clients := d.clientsFor(orders, req.Credentials)
	summary.Unhealthy = d.probe(ctx, clients)

	for _, r := range skipped {
		d.record(summary, r)
	}

	fused := make(map[model.PaymentProvider]bool)
	for _, order := range orders {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		gw, ok := clients[order.PaymentProvider]
		if !ok {
			d.record(summary, skippedResult(order, fmt.Sprintf("%v: %s", payment.ErrProviderNotConfigured, order.PaymentProvider)))
			continue
		}
		if fused[order.PaymentProvider] {
			d.record(summary, model.OrderReconcileResult{
				OrderID:         order.ID,
				Provider:        order.PaymentProvider,
				PreviousStatus:  order.Status,
				Status:          order.Status,
				Canonical:       model.CanonicalPending,
				Outcome:         model.ReconcileInvalidCredentials,
				RemoteReference: order.RemoteReference,
				Error:           payment.ErrInvalidCredentials.Error(),
			})
			continue
		}

		// Cancellation ends the pass between orders, never inside one.
		r := d.reconcileOrder(context.WithoutCancel(ctx), gw, order)
		if r.Outcome == model.ReconcileInvalidCredentials {
			fused[order.PaymentProvider] = true
			d.logger.Warn("provider credentials rejected, skipping its remaining orders",
				zap.String("provider", order.PaymentProvider.String()),
				zap.String("order_id", order.ID),
			)
		}
		d.record(summary, r)
	}

	summary.FinishedAt = time.Now().UTC()

	result := passCompleted
	if summary.Cancelled {
		result = passCancelled
	}
	d.recordPass(result, summary.StartedAt)

	span.SetAttributes(
		attribute.String("reconcile.id", summary.ID),
		attribute.Int("reconcile.examined", summary.Examined),
		attribute.Int("reconcile.updated", summary.Updated),
		attribute.Int("reconcile.failures", summary.Failures),
		attribute.Bool("reconcile.cancelled", summary.Cancelled),
	)

	d.save(ctx, summary)

	d.logger.Info("reconciliation pass finished",
		zap.String("reconcile_id", summary.ID),
		zap.Int("examined", summary.Examined),
		zap.Int("updated", summary.Updated),
		zap.Int("failures", summary.Failures),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// candidates returns the orders to query and the results of requested orders
// that cannot be reconciled.
func (d *reconcileDomain) candidates(ctx context.Context, req *model.ReconcileRequest) ([]*model.Order, []model.OrderReconcileResult, error) {
	if len(req.OrderIDs) == 0 {
		all, err := d.orders.GetOrders(ctx)
		if err != nil {
			return nil, nil, err
		}
		var out []*model.Order
		for _, o := range all {
			if o != nil && o.IsPending() && o.HasLookupKey() && d.gateways.Has(o.PaymentProvider) {
				out = append(out, o)
			}
		}
		return out, nil, nil
	}

	var (
		out     []*model.Order
		skipped []model.OrderReconcileResult
		seen    = make(map[string]bool, len(req.OrderIDs))
	)
	for _, id := range req.OrderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		order, err := d.orders.GetOrder(ctx, id)
		if err != nil {
			skipped = append(skipped, model.OrderReconcileResult{
				OrderID: id,
				Outcome: model.ReconcileError,
				Error:   fmt.Sprintf("get order: %v", err),
			})
			continue
		}
		if order == nil {
			skipped = append(skipped, skippedResult(&model.Order{ID: id}, payment.ErrOrderNotFound.Error()))
			continue
		}
		switch {
		case !order.IsPending():
			skipped = append(skipped, skippedResult(order, payment.ErrOrderNotPending.Error()))
		case !d.gateways.Has(order.PaymentProvider):
			skipped = append(skipped, skippedResult(order, fmt.Sprintf("%v: %s", payment.ErrProviderNotConfigured, order.PaymentProvider)))
		case !order.HasLookupKey():
			skipped = append(skipped, skippedResult(order, "order has neither a remote reference nor a customer email"))
		default:
			out = append(out, order)
		}
	}
	return out, skipped, nil
}

func skippedResult(order *model.Order, reason string) model.OrderReconcileResult {
	return model.OrderReconcileResult{
		OrderID:         order.ID,
		Provider:        order.PaymentProvider,
		PreviousStatus:  order.Status,
		Status:          order.Status,
		Outcome:         model.ReconcileSkipped,
		RemoteReference: order.RemoteReference,
		Error:           reason,
	}
}

// clientsFor returns one client per provider touched by the orders,
// applying the per-pass credential overrides.
func (d *reconcileDomain) clientsFor(orders []*model.Order, credentials map[model.PaymentProvider]string) map[model.PaymentProvider]outbound.GatewayPort {
	clients := make(map[model.PaymentProvider]outbound.GatewayPort)
	for _, o := range orders {
		if _, ok := clients[o.PaymentProvider]; ok {
			continue
		}
		gw, err := d.gateways.Get(o.PaymentProvider)
		if err != nil {
			continue
		}
		if token := credentials[o.PaymentProvider]; token != "" {
			gw = gw.WithCredential(token)
		}
		clients[o.PaymentProvider] = gw
	}
	return clients
}

// probe checks every provider once. The result is advisory: orders of an
// unhealthy provider are still queried.
func (d *reconcileDomain) probe(ctx context.Context, clients map[model.PaymentProvider]outbound.GatewayPort) []model.PaymentProvider {
	var unhealthy []model.PaymentProvider
	for provider, gw := range clients {
		if err := gw.Probe(ctx); err != nil {
			unhealthy = append(unhealthy, provider)
			d.logger.Warn("provider liveness probe failed",
				zap.String("provider", provider.String()),
				zap.Error(err),
			)
		}
	}
	sort.Slice(unhealthy, func(i, j int) bool { return unhealthy[i] < unhealthy[j] })
	return unhealthy
}

// reconcileOrder looks one order up and persists the transition, if any.
// A panic is contained to the order.
func (d *reconcileDomain) reconcileOrder(ctx context.Context, gw outbound.GatewayPort, order *model.Order) (res model.OrderReconcileResult) {
	res = model.OrderReconcileResult{
		OrderID:         order.ID,
		Provider:        order.PaymentProvider,
		PreviousStatus:  order.Status,
		Status:          order.Status,
		Canonical:       model.CanonicalPending,
		RemoteReference: order.RemoteReference,
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while reconciling order",
				zap.String("order_id", order.ID),
				zap.String("provider", order.PaymentProvider.String()),
				zap.Any("panic", r),
			)
			res.Status = order.Status
			res.Outcome = model.ReconcileError
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	lookup := gw.GetStatus(ctx, order)
	if lookup == nil {
		lookup = payment.LookupFromError(payment.ErrProviderUnavailable)
	}
	res.Canonical = lookup.Status

	switch lookup.Outcome {
	case model.LookupResolved:
	case model.LookupInvalidCredentials:
		res.Outcome = model.ReconcileInvalidCredentials
		res.Error = errString(lookup.Err, payment.ErrInvalidCredentials)
		return res
	case model.LookupNotFound:
		res.Outcome = model.ReconcileNotFound
		res.Error = errString(lookup.Err, payment.ErrNotFound)
		d.logger.Warn("payment record not found",
			zap.String("order_id", order.ID),
			zap.String("provider", order.PaymentProvider.String()),
		)
		return res
	default:
		res.Outcome = model.ReconcileUnavailable
		res.Error = errString(lookup.Err, payment.ErrProviderUnavailable)
		d.logger.Warn("payment status lookup failed",
			zap.String("order_id", order.ID),
			zap.String("provider", order.PaymentProvider.String()),
			zap.String("error", res.Error),
		)
		return res
	}

	update := model.OrderUpdate{}
	target, transition := lookup.Status.OrderStatus()
	if transition && order.Status.CanTransitionTo(target) {
		update.Status = &target
	}
	if ref := lookup.RemoteReference; ref != "" && ref != order.RemoteReference && ref != order.ID && d.matcher.RemoteReference(order) == "" {
		update.RemoteReference = &ref
	}

	if update.IsEmpty() {
		res.Outcome = model.ReconcileUnchanged
		return res
	}

	if err := d.orders.UpdateOrder(ctx, order.ID, update); err != nil {
		res.Outcome = model.ReconcileError
		res.Error = fmt.Sprintf("update order: %v", err)
		d.logger.Warn("failed to update order",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return res
	}

	updated := *order
	update.Apply(&updated)
	res.RemoteReference = updated.RemoteReference

	if update.Status == nil {
		res.Outcome = model.ReconcileUnchanged
		return res
	}

	res.Status = target
	res.Outcome = model.ReconcileUpdated
	d.logger.Info("order reconciled",
		zap.String("order_id", order.ID),
		zap.String("provider", order.PaymentProvider.String()),
		zap.String("from", order.Status.String()),
		zap.String("to", target.String()),
		zap.String("canonical", lookup.Status.String()),
	)
	d.publish(ctx, &updated, lookup.Status)
	return res
}

func (d *reconcileDomain) publish(ctx context.Context, order *model.Order, canonical model.CanonicalStatus) {
	if d.events == nil {
		return
	}
	var event events.Event
	if order.Status == model.OrderStatusCompleted {
		event = events.NewOrderPaymentCompletedEvent(order)
	} else {
		event = events.NewOrderPaymentFailedEvent(order, canonical)
	}
	if err := d.events.Publish(ctx, event); err != nil {
		d.logger.Warn("failed to publish order event",
			zap.String("order_id", order.ID),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}

func (d *reconcileDomain) save(ctx context.Context, summary *model.ReconcileSummary) {
	if d.archive == nil {
		return
	}
	key, err := d.archive.Save(context.WithoutCancel(ctx), summary)
	if err != nil {
		d.logger.Warn("failed to archive reconciliation summary",
			zap.String("reconcile_id", summary.ID),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("reconciliation summary archived",
		zap.String("reconcile_id", summary.ID),
		zap.String("key", key),
	)
}

func (d *reconcileDomain) record(summary *model.ReconcileSummary, r model.OrderReconcileResult) {
	summary.Record(r)
	d.metrics.RecordReconcileOrder(r.Provider.String(), string(r.Outcome))
}

func (d *reconcileDomain) recordPass(result string, started time.Time) {
	d.metrics.RecordReconcilePass(result, time.Since(started))
}

func errString(err, fallback error) string {
	if err == nil {
		return fallback.Error()
	}
	return err.Error()
}

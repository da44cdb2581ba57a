package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/domain"
	"github.com/ManboyFxx/odelivery/internal/events"
	"github.com/ManboyFxx/odelivery/internal/realtime"
)

// Realtime event names.
const (
	EventOrderNew        = "order.new"
	EventOrderUpdated    = "order.updated"
	EventOrderAccepted   = "order.accepted"
	EventMotoboyArrived  = "motoboy.arrived"
	EventOrderDelivered  = "order.delivered"
	EventLocationUpdated = "location.updated"
)

func tenantChannel(tenantID string) string   { return "tenant." + tenantID }
func orderChannel(orderID string) string     { return "order." + orderID }
func userChannel(customerID string) string   { return "user." + customerID }
func motoboyChannel(motoboyID string) string { return "motoboy." + motoboyID }

// RealtimeBroadcaster publishes minimized order snapshots to tenant-scoped
// channels. Transport failures are tolerated with a warning: polling
// clients fall back to the poll marker, which is touched synchronously on
// every mutation.
type RealtimeBroadcaster struct {
	publisher realtime.Publisher
	log       *zap.Logger
}

func NewRealtimeBroadcaster(publisher realtime.Publisher, log *zap.Logger) *RealtimeBroadcaster {
	return &RealtimeBroadcaster{publisher: publisher, log: log}
}

func (b *RealtimeBroadcaster) Name() string { return "realtime_broadcaster" }

func (b *RealtimeBroadcaster) Handle(ctx context.Context, ev *events.OrderStatusChanged) error {
	order := ev.Order
	b.publish(ctx, tenantChannel(order.TenantID), EventOrderUpdated, order.Snapshot(), ev.OriginSocket, order.ID)

	switch ev.NewStatus {
	case domain.StatusMotoboyAccepted:
		b.toOrderAndCustomer(ctx, order, EventOrderAccepted, ev.OriginSocket)
	case domain.StatusDelivered:
		b.toOrderAndCustomer(ctx, order, EventOrderDelivered, ev.OriginSocket)
	}
	return nil
}

// OrderCreated announces a new order on the tenant channel.
func (b *RealtimeBroadcaster) OrderCreated(ctx context.Context, order *domain.Order, originSocket string) {
	b.publish(ctx, tenantChannel(order.TenantID), EventOrderNew, order.Snapshot(), originSocket, order.ID)
}

// MotoboyArrived announces that the courier reached the destination.
func (b *RealtimeBroadcaster) MotoboyArrived(ctx context.Context, order *domain.Order) {
	b.toOrderAndCustomer(ctx, order, EventMotoboyArrived, "")
}

// locationPayload is the courier ping frame. Deliberately tiny: the courier
// position is the highest-frequency message in the system.
type locationPayload struct {
	OrderID    string    `json:"order_id"`
	MotoboyID  string    `json:"motoboy_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LocationUpdated relays a courier position ping to the order's watchers
// and to the courier's own channel.
func (b *RealtimeBroadcaster) LocationUpdated(ctx context.Context, orderID, motoboyID string, lat, lng float64) {
	payload := locationPayload{
		OrderID:    orderID,
		MotoboyID:  motoboyID,
		Lat:        lat,
		Lng:        lng,
		RecordedAt: time.Now().UTC(),
	}
	b.publish(ctx, orderChannel(orderID), EventLocationUpdated, payload, "", orderID)
	b.publish(ctx, motoboyChannel(motoboyID), EventLocationUpdated, payload, "", orderID)
}

func (b *RealtimeBroadcaster) toOrderAndCustomer(ctx context.Context, order *domain.Order, event, originSocket string) {
	b.publish(ctx, orderChannel(order.ID), event, order.Snapshot(), originSocket, order.ID)
	if order.HasCustomer() {
		b.publish(ctx, userChannel(*order.CustomerID), event, order.Snapshot(), originSocket, order.ID)
	}
}

func (b *RealtimeBroadcaster) publish(ctx context.Context, channel, event string, payload any, originSocket, orderID string) {
	if err := b.publisher.Publish(ctx, channel, event, payload, originSocket); err != nil {
		b.log.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

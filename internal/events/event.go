// Package events defines the order status change event and the dispatcher
// that fans it out to the registered effect handlers.
package events

import (
	"time"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// OrderStatusChanged is emitted once per real status transition. It carries
// an order snapshot taken at transition time plus the old and new status.
// The event is never persisted; it exists only for the duration of one
// dispatch.
type OrderStatusChanged struct {
	Order     *domain.Order
	OldStatus domain.OrderStatus
	NewStatus domain.OrderStatus

	// OriginSocket identifies the realtime connection that triggered the
	// mutation, so broadcasts can exclude it from its own echo. Empty when
	// the mutation came from a non-realtime client.
	OriginSocket string

	OccurredAt time.Time
}

// NewStatusChange is the status transition guard. It builds an event only
// when the persisted status actually differs from its pre-mutation value;
// no-op writes that re-save the same status emit nothing. Every code path
// that mutates status must funnel through here.
func NewStatusChange(order *domain.Order, oldStatus domain.OrderStatus, originSocket string) (*OrderStatusChanged, bool) {
	if order == nil || order.Status == oldStatus {
		return nil, false
	}
	return &OrderStatusChanged{
		Order:        order,
		OldStatus:    oldStatus,
		NewStatus:    order.Status,
		OriginSocket: originSocket,
		OccurredAt:   time.Now().UTC(),
	}, true
}

// Package handlers contains the four effect handlers fanned out to on every
// order status transition: messaging notification, realtime broadcast,
// loyalty awarding and poll-marker touching.
package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/domain"
	"github.com/ManboyFxx/odelivery/internal/events"
	"github.com/ManboyFxx/odelivery/internal/messaging"
)

// statusTemplates maps a new status to the notification template it
// triggers. Statuses absent from the table notify nothing.
var statusTemplates = map[domain.OrderStatus]string{
	domain.StatusPreparing:      messaging.TemplateOrderConfirmed,
	domain.StatusReady:          messaging.TemplateOrderReady,
	domain.StatusOutForDelivery: messaging.TemplateOrderOutForDelivery,
	domain.StatusDelivered:      messaging.TemplateOrderDelivered,
	domain.StatusCancelled:      messaging.TemplateOrderCancelled,
}

// MessagingNotifier enqueues at most one outbound notification per event.
type MessagingNotifier struct {
	gateway messaging.Gateway
	log     *zap.Logger
}

func NewMessagingNotifier(gateway messaging.Gateway, log *zap.Logger) *MessagingNotifier {
	return &MessagingNotifier{gateway: gateway, log: log}
}

func (n *MessagingNotifier) Name() string { return "messaging_notifier" }

func (n *MessagingNotifier) Handle(ctx context.Context, ev *events.OrderStatusChanged) error {
	templateKey, ok := templateFor(ev)
	if !ok {
		return nil
	}
	if err := n.gateway.Send(ctx, ev.Order, templateKey); err != nil {
		n.log.Error("notification enqueue failed",
			zap.String("order_id", ev.Order.ID),
			zap.String("template_key", templateKey),
			zap.String("status", string(ev.NewStatus)),
			zap.Error(err),
		)
	}
	return nil
}

// templateFor resolves the template for an event. The motoboy-assignment
// branch is evaluated first and is mutually exclusive with the status
// table: one event never produces two notifications.
func templateFor(ev *events.OrderStatusChanged) (string, bool) {
	if (ev.NewStatus == domain.StatusMotoboyAccepted || ev.NewStatus == domain.StatusWaitingMotoboy) && ev.Order.HasMotoboy() {
		return messaging.TemplateMotoboyAssigned, true
	}
	templateKey, ok := statusTemplates[ev.NewStatus]
	return templateKey, ok
}

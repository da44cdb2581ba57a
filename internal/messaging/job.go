// Package messaging defines the outbound notification gateway and the job
// envelope it enqueues for the delivery workers.
package messaging

import (
	"context"
	"time"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// Template keys for outbound customer notifications.
const (
	TemplateOrderConfirmed      = "order_confirmed"
	TemplateOrderReady          = "order_ready"
	TemplateOrderOutForDelivery = "order_out_for_delivery"
	TemplateOrderDelivered      = "order_delivered"
	TemplateOrderCancelled      = "order_cancelled"
	TemplateMotoboyAssigned     = "motoboy_assigned"
)

// Job is the message envelope for one outbound notification. It is what the
// gateway serializes onto the notifications topic; the actual template
// rendering and provider delivery happen in a separate consumer.
type Job struct {
	TemplateKey string    `json:"template_key"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TenantID    string    `json:"tenant_id"`
	CustomerID  string    `json:"customer_id,omitempty"`
	MotoboyID   string    `json:"motoboy_id,omitempty"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewJob builds the envelope for an order and template key.
func NewJob(order *domain.Order, templateKey string) Job {
	j := Job{
		TemplateKey: templateKey,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TenantID:    order.TenantID,
		Status:      string(order.Status),
		Total:       order.Total,
		EnqueuedAt:  time.Now().UTC(),
	}
	if order.CustomerID != nil {
		j.CustomerID = *order.CustomerID
	}
	if order.MotoboyID != nil {
		j.MotoboyID = *order.MotoboyID
	}
	return j
}

// Gateway enqueues outbound notification jobs. Implementations must be safe
// for concurrent use by multiple dispatcher workers.
type Gateway interface {
	Send(ctx context.Context, order *domain.Order, templateKey string) error
}

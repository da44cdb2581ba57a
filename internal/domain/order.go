// Package domain holds the order aggregate and its status set.
package domain

import "time"

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

// The fixed order status set.
const (
	StatusNew             OrderStatus = "new"
	StatusPreparing       OrderStatus = "preparing"
	StatusReady           OrderStatus = "ready"
	StatusWaitingMotoboy  OrderStatus = "waiting_motoboy"
	StatusMotoboyAccepted OrderStatus = "motoboy_accepted"
	StatusOutForDelivery  OrderStatus = "out_for_delivery"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusPreparing, StatusReady, StatusWaitingMotoboy,
		StatusMotoboyAccepted, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is the order aggregate. Only the fields the fan-out handlers need
// are carried here; items, addresses and other heavy relations live in
// their own tables and are never loaded for event delivery.
type Order struct {
	ID                  string
	OrderNumber         string
	TenantID            string
	CustomerID          *string
	MotoboyID           *string
	Total               float64
	Mode                string
	Status              OrderStatus
	LoyaltyPointsEarned *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasCustomer reports whether the order belongs to an identified customer.
// Guest orders have no customer and never earn loyalty points.
func (o *Order) HasCustomer() bool {
	return o.CustomerID != nil && *o.CustomerID != ""
}

// HasMotoboy reports whether a courier is assigned to the order.
func (o *Order) HasMotoboy() bool {
	return o.MotoboyID != nil && *o.MotoboyID != ""
}

// PointsAwarded reports whether loyalty points were already persisted for
// this order. It is the idempotency guard for the loyalty effect.
func (o *Order) PointsAwarded() bool {
	return o.LoyaltyPointsEarned != nil && *o.LoyaltyPointsEarned > 0
}

// Snapshot is the reduced order view published to realtime channels and
// returned by the API. It is a strict whitelist: adding a field here means
// leaking it to every connected client of the tenant.
type Snapshot struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	OrderNumber string    `json:"order_number"`
	Total       float64   `json:"total"`
	Mode        string    `json:"mode"`
	TenantID    string    `json:"tenant_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns the broadcast view of the order.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:          o.ID,
		Status:      string(o.Status),
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		Mode:        o.Mode,
		TenantID:    o.TenantID,
		UpdatedAt:   o.UpdatedAt,
	}
}

package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/domain"
	"github.com/ManboyFxx/odelivery/internal/events"
)

// Ledger computes and credits loyalty points for a delivered order.
type Ledger interface {
	AwardPointsForOrder(ctx context.Context, order *domain.Order) (int64, error)
}

// PointsWriter persists the awarded amount onto the order through its
// normal persistence path. It must apply only when no points were persisted
// yet and report whether the write took effect.
type PointsWriter interface {
	SetLoyaltyPoints(ctx context.Context, orderID string, points int64) (bool, error)
}

// LoyaltyAwarder credits points exactly once per order when it is
// delivered. Awarding is a one-shot latch: the guard reads persisted state,
// not event identity, so replayed or duplicated delivered events award
// nothing further.
type LoyaltyAwarder struct {
	ledger Ledger
	orders PointsWriter
	log    *zap.Logger
}

func NewLoyaltyAwarder(ledger Ledger, orders PointsWriter, log *zap.Logger) *LoyaltyAwarder {
	return &LoyaltyAwarder{ledger: ledger, orders: orders, log: log}
}

func (a *LoyaltyAwarder) Name() string { return "loyalty_awarder" }

func (a *LoyaltyAwarder) Handle(ctx context.Context, ev *events.OrderStatusChanged) error {
	order := ev.Order
	if ev.NewStatus != domain.StatusDelivered {
		return nil
	}
	if order.PointsAwarded() {
		return nil
	}
	if !order.HasCustomer() {
		// Guest orders never earn points. Not an error.
		return nil
	}

	points, err := a.ledger.AwardPointsForOrder(ctx, order)
	if err != nil {
		a.log.Error("loyalty award failed",
			zap.String("order_id", order.ID),
			zap.String("tenant_id", order.TenantID),
			zap.Error(err),
		)
		return nil
	}
	if points <= 0 {
		return nil
	}

	applied, err := a.orders.SetLoyaltyPoints(ctx, order.ID, points)
	if err != nil {
		a.log.Error("loyalty points persist failed",
			zap.String("order_id", order.ID),
			zap.Int64("points", points),
			zap.Error(err),
		)
		return nil
	}
	if !applied {
		// Another delivery confirmation won the race; its award stands.
		return nil
	}

	a.log.Info("loyalty points awarded",
		zap.String("order_id", order.ID),
		zap.String("customer_id", *order.CustomerID),
		zap.Int64("points", points),
	)
	return nil
}

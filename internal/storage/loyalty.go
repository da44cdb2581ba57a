package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// LoyaltyLedger credits reward points per customer. One ledger row per
// order, enforced by a unique index on order_id.
type LoyaltyLedger struct {
	pool *pgxpool.Pool
}

func NewLoyaltyLedger(pool *pgxpool.Pool) *LoyaltyLedger {
	return &LoyaltyLedger{pool: pool}
}

// AwardPointsForOrder credits floor(total) points to the order's customer.
// A replayed award for the same order hits the unique index and credits
// nothing, returning 0 points.
func (l *LoyaltyLedger) AwardPointsForOrder(ctx context.Context, order *domain.Order) (int64, error) {
	if !order.HasCustomer() {
		return 0, nil
	}
	points := int64(math.Floor(order.Total))
	if points <= 0 {
		return 0, nil
	}

	tag, err := l.pool.Exec(ctx, `
		INSERT INTO loyalty_ledger (id, tenant_id, customer_id, order_id, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`, uuid.NewString(), order.TenantID, *order.CustomerID, order.ID, points, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("credit loyalty points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already credited by an earlier delivery confirmation.
		return 0, nil
	}
	return points, nil
}

// CustomerBalance sums a customer's credited points within one tenant.
func (l *LoyaltyLedger) CustomerBalance(ctx context.Context, tenantID, customerID string) (int64, error) {
	var balance int64
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM loyalty_ledger
		WHERE tenant_id = $1 AND customer_id = $2
	`, tenantID, customerID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum loyalty points: %w", err)
	}
	return balance, nil
}

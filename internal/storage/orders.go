// Package storage implements Postgres persistence for orders and the
// loyalty ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

// ErrOrderNotFound is returned when an order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, order_number, tenant_id, customer_id, motoboy_id, total, mode, status, loyalty_points_earned, created_at, updated_at`

// OrderRepository persists orders on a pgx pool.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.OrderNumber, o.TenantID, o.CustomerID, o.MotoboyID, o.Total, o.Mode, o.Status, o.LoyaltyPointsEarned, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus persists the new status and returns the updated order
// together with the status it replaced. Old and new status come out of the
// same statement, so every caller observes exactly the transition its own
// write produced; serializing against other writers is the row lock's job.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	row := r.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT status FROM orders WHERE id = $1 FOR UPDATE
		)
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns+`, (SELECT status FROM prev)
	`, id, status, time.Now().UTC())

	var o domain.Order
	var oldStatus domain.OrderStatus
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TenantID, &o.CustomerID, &o.MotoboyID,
		&o.Total, &o.Mode, &o.Status, &o.LoyaltyPointsEarned, &o.CreatedAt, &o.UpdatedAt, &oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrOrderNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("update order status: %w", err)
	}
	return &o, oldStatus, nil
}

// AssignMotoboy sets the courier on an order.
func (r *OrderRepository) AssignMotoboy(ctx context.Context, id, motoboyID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET motoboy_id = $2, updated_at = $3 WHERE id = $1
	`, id, motoboyID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign motoboy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetLoyaltyPoints latches the awarded amount onto the order. The WHERE
// clause makes the latch one-way: once a positive value is persisted no
// later write can change it. Returns whether this call applied the write.
func (r *OrderRepository) SetLoyaltyPoints(ctx context.Context, orderID string, points int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET loyalty_points_earned = $2, updated_at = $3
		WHERE id = $1 AND (loyalty_points_earned IS NULL OR loyalty_points_earned <= 0)
	`, orderID, points, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set loyalty points: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the order and returns its last state so the caller can
// touch the owning tenant's poll marker.
func (r *OrderRepository) Delete(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING `+orderColumns, id)
	return scanOrder(row)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TenantID, &o.CustomerID, &o.MotoboyID,
		&o.Total, &o.Mode, &o.Status, &o.LoyaltyPointsEarned, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

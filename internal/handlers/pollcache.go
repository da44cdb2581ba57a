package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/events"
	"github.com/ManboyFxx/odelivery/internal/pollcache"
)

// PollCacheToucher bumps the tenant poll marker so polling clients observe
// a change on their next interval. It runs synchronously inside the
// triggering request: an async touch could land after the client's next
// poll and the update would be missed.
//
// It doubles as a sync dispatch handler for status changes and is called
// directly on creates, deletes and status-preserving updates.
type PollCacheToucher struct {
	store pollcache.Store
	log   *zap.Logger
}

func NewPollCacheToucher(store pollcache.Store, log *zap.Logger) *PollCacheToucher {
	return &PollCacheToucher{store: store, log: log}
}

func (t *PollCacheToucher) Name() string { return "poll_cache_toucher" }

func (t *PollCacheToucher) Handle(ctx context.Context, ev *events.OrderStatusChanged) error {
	t.TouchTenant(ctx, ev.Order.TenantID)
	return nil
}

// TouchTenant updates the tenant's marker. A failure here is loud, since
// the marker is the sole fallback path for non-realtime clients, but it
// still never aborts the triggering mutation.
func (t *PollCacheToucher) TouchTenant(ctx context.Context, tenantID string) {
	if err := t.store.Touch(ctx, tenantID); err != nil {
		t.log.Error("poll marker touch failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
}

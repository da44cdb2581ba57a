package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

func TestNewStatusChange(t *testing.T) {
	order := &domain.Order{ID: "o1", TenantID: "t1", Status: domain.StatusPreparing}

	ev, ok := NewStatusChange(order, domain.StatusNew, "sock-1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusNew, ev.OldStatus)
	assert.Equal(t, domain.StatusPreparing, ev.NewStatus)
	assert.Equal(t, "sock-1", ev.OriginSocket)
	assert.Same(t, order, ev.Order)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestNewStatusChangeNoOp(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.StatusNew, domain.StatusPreparing, domain.StatusReady,
		domain.StatusWaitingMotoboy, domain.StatusMotoboyAccepted,
		domain.StatusOutForDelivery, domain.StatusDelivered, domain.StatusCancelled,
	} {
		order := &domain.Order{ID: "o1", Status: status}
		ev, ok := NewStatusChange(order, status, "")
		assert.False(t, ok, "status %s", status)
		assert.Nil(t, ev)
	}
}

func TestNewStatusChangeNilOrder(t *testing.T) {
	ev, ok := NewStatusChange(nil, domain.StatusNew, "")
	assert.False(t, ok)
	assert.Nil(t, ev)
}

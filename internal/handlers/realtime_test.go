package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/domain"
)

type publishedFrame struct {
	channel string
	event   string
	payload any
	except  string
}

type fakePublisher struct {
	frames []publishedFrame
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel, event string, payload any, exceptSocket string) error {
	p.frames = append(p.frames, publishedFrame{channel: channel, event: event, payload: payload, except: exceptSocket})
	return p.err
}

func (p *fakePublisher) framesFor(channel string) []publishedFrame {
	var out []publishedFrame
	for _, f := range p.frames {
		if f.channel == channel {
			out = append(out, f)
		}
	}
	return out
}

func TestBroadcasterPublishesUpdateOnTenantChannel(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{ID: "o1", TenantID: "t1", OrderNumber: "1042", Total: 35.5, Mode: "delivery"}
	ev := statusEvent(order, domain.StatusNew, domain.StatusPreparing)
	ev.OriginSocket = "sock-9"

	require.NoError(t, b.Handle(context.Background(), ev))

	require.Len(t, pub.frames, 1)
	f := pub.frames[0]
	assert.Equal(t, "tenant.t1", f.channel)
	assert.Equal(t, EventOrderUpdated, f.event)
	assert.Equal(t, "sock-9", f.except)
}

func TestBroadcasterPayloadWhitelist(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{
		ID: "o1", TenantID: "t1", OrderNumber: "1042", Total: 35.5, Mode: "delivery",
		CustomerID: str("c1"), MotoboyID: str("m1"),
	}
	require.NoError(t, b.Handle(context.Background(), statusEvent(order, domain.StatusNew, domain.StatusPreparing)))

	raw, err := json.Marshal(pub.frames[0].payload)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.ElementsMatch(t,
		[]string{"id", "status", "order_number", "total", "mode", "tenant_id", "updated_at"},
		keys(fields),
	)
}

func TestBroadcasterAcceptedGoesToOrderAndCustomer(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{ID: "o1", TenantID: "t1", CustomerID: str("c1"), MotoboyID: str("m1")}
	require.NoError(t, b.Handle(context.Background(), statusEvent(order, domain.StatusWaitingMotoboy, domain.StatusMotoboyAccepted)))

	tenant := pub.framesFor("tenant.t1")
	require.Len(t, tenant, 1)
	assert.Equal(t, EventOrderUpdated, tenant[0].event)

	orderCh := pub.framesFor("order.o1")
	require.Len(t, orderCh, 1)
	assert.Equal(t, EventOrderAccepted, orderCh[0].event)

	userCh := pub.framesFor("user.c1")
	require.Len(t, userCh, 1)
	assert.Equal(t, EventOrderAccepted, userCh[0].event)
}

func TestBroadcasterDeliveredWithoutCustomerSkipsUserChannel(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{ID: "o1", TenantID: "t1"}
	require.NoError(t, b.Handle(context.Background(), statusEvent(order, domain.StatusOutForDelivery, domain.StatusDelivered)))

	require.Len(t, pub.framesFor("order.o1"), 1)
	assert.Equal(t, EventOrderDelivered, pub.framesFor("order.o1")[0].event)
	for _, f := range pub.frames {
		assert.NotContains(t, f.channel, "user.")
	}
}

func TestBroadcasterOrderCreated(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{ID: "o1", TenantID: "t1"}
	b.OrderCreated(context.Background(), order, "sock-1")

	require.Len(t, pub.frames, 1)
	assert.Equal(t, "tenant.t1", pub.frames[0].channel)
	assert.Equal(t, EventOrderNew, pub.frames[0].event)
	assert.Equal(t, "sock-1", pub.frames[0].except)
}

func TestBroadcasterLocationUpdated(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	b.LocationUpdated(context.Background(), "o1", "m1", -23.55, -46.63)

	require.Len(t, pub.frames, 2)
	assert.Equal(t, "order.o1", pub.frames[0].channel)
	assert.Equal(t, "motoboy.m1", pub.frames[1].channel)
	for _, f := range pub.frames {
		assert.Equal(t, EventLocationUpdated, f.event)
	}
}

func TestBroadcasterToleratesTransportFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis unreachable")}
	b := NewRealtimeBroadcaster(pub, zap.NewNop())

	order := &domain.Order{ID: "o1", TenantID: "t1"}
	err := b.Handle(context.Background(), statusEvent(order, domain.StatusNew, domain.StatusPreparing))

	assert.NoError(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

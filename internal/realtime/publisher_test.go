package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherFrame(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "tenant.t1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(rdb)
	err = p.Publish(ctx, "tenant.t1", "order.updated", map[string]string{"id": "o1"}, "sock-1")
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var frame struct {
			Event  string            `json:"event"`
			Data   map[string]string `json:"data"`
			Except string            `json:"except"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &frame))
		assert.Equal(t, "order.updated", frame.Event)
		assert.Equal(t, "o1", frame.Data["id"])
		assert.Equal(t, "sock-1", frame.Except)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on tenant channel")
	}
}

func TestRedisPublisherOmitsEmptyExcept(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "order.o1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := NewRedisPublisher(rdb)
	require.NoError(t, p.Publish(ctx, "order.o1", "motoboy.arrived", map[string]string{"id": "o1"}, ""))

	select {
	case msg := <-sub.Channel():
		assert.NotContains(t, msg.Payload, "except")
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on order channel")
	}
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), "tenant.t1", "order.new", nil, ""))
}

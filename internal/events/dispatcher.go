package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler consumes an OrderStatusChanged event and performs one side effect.
// Handlers must be independently idempotent: the dispatcher guarantees
// attempt-once delivery per dispatch, not ordering between handlers.
type Handler interface {
	Name() string
	Handle(ctx context.Context, ev *OrderStatusChanged) error
}

type invocation struct {
	handler Handler
	event   *OrderStatusChanged
}

// Dispatcher owns the fixed list of effect handlers. Sync handlers run
// inline in the caller's context before Dispatch returns; async handlers
// are enqueued onto a bounded in-process queue and executed by worker
// goroutines, each invocation under its own timeout.
//
// No handler outcome ever reaches the caller: a failing, panicking or
// timed-out handler is logged and the rest still run.
type Dispatcher struct {
	sync    []Handler
	async   []Handler
	queue   chan invocation
	timeout time.Duration
	log     *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher builds a dispatcher with explicit handler lists. Handlers
// are registered here, at construction, never discovered: hidden global
// wiring is exactly what this package exists to avoid.
func NewDispatcher(syncHandlers, asyncHandlers []Handler, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sync:    syncHandlers,
		async:   asyncHandlers,
		queue:   make(chan invocation, queueSize),
		timeout: timeout,
		log:     log,
	}
}

// Start launches n worker goroutines consuming the async queue. Workers run
// until Close is called and the queue drains.
func (d *Dispatcher) Start(n int) {
	if n <= 0 {
		n = 4
	}
	for i := 0; i < n; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Close stops accepting async work and waits for in-flight invocations.
// Dispatch stays safe to call after Close: sync handlers still run, async
// invocations are dropped with an error log.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.queue)
	})
	d.wg.Wait()
}

// Dispatch delivers the event to every registered handler. Sync handlers
// complete before Dispatch returns; async handlers are enqueued without
// blocking. A full or closed queue drops the invocation with an error log:
// retry policy belongs to the surrounding infrastructure, not here.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *OrderStatusChanged) {
	if ev == nil {
		return
	}
	for _, h := range d.sync {
		d.invoke(ctx, h, ev)
	}
	for _, h := range d.async {
		if !d.enqueue(invocation{handler: h, event: ev}) {
			d.log.Error("effect queue unavailable, dropping invocation",
				zap.String("handler", h.Name()),
				zap.String("order_id", ev.Order.ID),
				zap.String("tenant_id", ev.Order.TenantID),
			)
		}
	}
}

// enqueue attempts a non-blocking send. The read lock excludes Close, so
// the send can never hit a closed channel.
func (d *Dispatcher) enqueue(inv invocation) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- inv:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for inv := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		d.invoke(ctx, inv.handler, inv.event)
		cancel()
	}
}

// invoke runs one handler, converting panics to errors so a broken handler
// can never take down a worker or the caller.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, ev *OrderStatusChanged) {
	defer func() {
		if r := recover(); r != nil {
			d.logFailure(h, ev, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := h.Handle(ctx, ev); err != nil {
		d.logFailure(h, ev, err)
	}
}

func (d *Dispatcher) logFailure(h Handler, ev *OrderStatusChanged, err error) {
	d.log.Error("effect handler failed",
		zap.String("handler", h.Name()),
		zap.String("order_id", ev.Order.ID),
		zap.String("tenant_id", ev.Order.TenantID),
		zap.String("old_status", string(ev.OldStatus)),
		zap.String("new_status", string(ev.NewStatus)),
		zap.Error(err),
	)
}

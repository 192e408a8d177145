package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/and161185/gamewallet/internal/metrics"
	"github.com/and161185/gamewallet/internal/model"
	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("event queue full")
var ErrDispatcherClosed = errors.New("event dispatcher closed")

const publishTimeout = 5 * time.Second

// Dispatcher queues events and publishes them from a fixed pool of workers so that
// Emit never blocks the caller.
type Dispatcher struct {
	target  *Multi
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	workers int

	ch      chan model.Event
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	skipped atomic.Int64
}

func NewDispatcher(target *Multi, workers int, logger *zap.SugaredLogger, m *metrics.Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		target:  target,
		logger:  logger,
		metrics: m,
		workers: workers,
		ch:      make(chan model.Event, 10*workers),
	}
}

// Start launches the workers. They run until Close drains the queue; ctx only supplies
// values to publish calls.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for e := range d.ch {
		d.publish(ctx, e)
	}
}

func (d *Dispatcher) publish(ctx context.Context, e model.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("publish event %s panicked: %v", e.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_ = d.target.Emit(ctx, e)
}

func (d *Dispatcher) Emit(_ context.Context, e model.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.EventDropped()
		return ErrDispatcherClosed
	}

	select {
	case d.ch <- e:
		return nil
	default:
		skipped := d.skipped.Add(1)
		if skipped%10 == 1 {
			d.logger.Warnf("channel full, skipped %d events", skipped)
		}
		d.metrics.EventDropped()
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones are published.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

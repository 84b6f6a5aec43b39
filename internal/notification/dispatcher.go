package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DispatcherOptions tunes the background delivery queue.
type DispatcherOptions struct {
	QueueSize       int
	Workers         int
	MaxRetries      uint64
	InitialInterval time.Duration
	SendTimeout     time.Duration
}

func (o DispatcherOptions) withDefaults() DispatcherOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 10 * time.Second
	}
	return o
}

// Dispatcher is a best-effort side channel in front of a Notifier. Dispatch
// never blocks and never fails; delivery happens on background workers that
// retry with exponential backoff and log what they could not deliver.
type Dispatcher struct {
	sender Notifier
	logger *slog.Logger
	opts   DispatcherOptions

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher. Call Start before dispatching.
func NewDispatcher(sender Notifier, logger *slog.Logger, opts DispatcherOptions) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		sender: sender,
		logger: logger,
		opts:   opts,
		queue:  make(chan Message, opts.QueueSize),
	}
}

// Start launches the delivery workers. They stop once Close has been called
// and the queue is drained, or when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Dispatch enqueues message for delivery. A full or closed queue drops it.
func (d *Dispatcher) Dispatch(message Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification dropped: dispatcher closed", slog.String("kind", message.Kind))
		return
	}
	select {
	case d.queue <- message:
	default:
		d.logger.Warn("notification dropped: queue full", slog.String("kind", message.Kind))
	}
}

// Close stops accepting messages and waits for queued ones to be delivered,
// giving up when ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, message)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, message Message) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.opts.InitialInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, d.opts.MaxRetries), ctx)

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
		return d.sender.Send(sendCtx, message)
	}, retry)
	if err != nil {
		d.logger.Error("notification delivery failed",
			slog.String("kind", message.Kind),
			slog.Int("recipients", len(message.To)),
			slog.Int("attempts", attempts),
			slog.Any("error", err),
		)
	}
}

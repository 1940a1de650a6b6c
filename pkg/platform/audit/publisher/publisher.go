// Package publisher fans audit events out to a store, synchronously or
// through a bounded buffer drained by a background goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "paperledger/pkg/platform/audit"
	"paperledger/pkg/platform/circuit"
)

type Publisher struct {
	store  audit.Store
	sinks  []sinkEntry
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches to asynchronous delivery with a buffer of size n.
// Events emitted while the buffer is full are dropped and logged.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, n)
	}
}

// WithSink forwards every persisted event to an additional sink such as a
// Kafka topic. Sink failures are logged, never returned.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinkEntry{sink: sink})
	}
}

// WithGuardedSink is WithSink behind a circuit breaker: while the breaker is
// open, events skip the sink instead of waiting on it.
func WithGuardedSink(sink audit.Sink, breaker *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinkEntry{sink: sink, breaker: breaker})
	}
}

type sinkEntry struct {
	sink    audit.Sink
	breaker *circuit.Breaker
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit fills ID and Timestamp when unset and delivers the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.buffer == nil {
		return p.deliver(ctx, event)
	}
	select {
	case p.buffer <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, actor string) ([]audit.Event, error) {
	return p.store.ListByActor(ctx, actor)
}

// Close stops the background goroutine after draining buffered events.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.deliver(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, entry := range p.sinks {
		p.forward(ctx, entry, event)
	}
	return nil
}

func (p *Publisher) forward(ctx context.Context, entry sinkEntry, event audit.Event) {
	if entry.breaker != nil && !entry.breaker.Allow() {
		return
	}
	err := entry.sink.Append(ctx, event)
	if entry.breaker != nil {
		var change circuit.Change
		if err != nil {
			_, change = entry.breaker.RecordFailure()
		} else {
			_, change = entry.breaker.RecordSuccess()
		}
		if p.logger != nil && (change.Opened || change.Closed) {
			p.logger.WarnContext(ctx, "audit sink circuit changed",
				"breaker", entry.breaker.Name(),
				"state", entry.breaker.State().String(),
			)
		}
	}
	if err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "audit sink rejected event", "action", event.Action, "error", err)
	}
}

// Package publisher records audit entries on behalf of the services.
// Recording is best-effort: it never returns an error to the caller and
// never fails the business operation that triggered it.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/circuit"
	"trustline/pkg/platform/middleware/device"
	"trustline/pkg/requestcontext"
)

const persistTimeout = 3 * time.Second

type Publisher struct {
	store     audit.Store
	sinks     []audit.Sink
	logger    *slog.Logger
	metrics   *Metrics
	breaker   *circuit.Breaker
	retention time.Duration

	buffer chan audit.Entry
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithSink fans persisted entries out to an additional destination.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func WithRetention(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.retention = d
		}
	}
}

// WithAsyncBuffer moves persistence onto a background goroutine. When the
// buffer is full new entries are dropped rather than blocking the caller.
// Entries recorded after Close are persisted synchronously.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Entry, size)
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		logger:    slog.Default(),
		breaker:   circuit.New("audit-store", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute)),
		retention: audit.DefaultRetention,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Record enriches entry from the request context and persists it.
func (p *Publisher) Record(ctx context.Context, entry audit.Entry) {
	entry = p.enrich(ctx, entry)
	if err := entry.Validate(); err != nil {
		p.metrics.incInvalid()
		p.logger.ErrorContext(ctx, "dropping invalid audit entry",
			"kind", entry.Kind,
			"error", err,
		)
		return
	}

	if p.buffer == nil || !p.enqueue(ctx, entry) {
		p.persist(ctx, entry)
	}
}

// enqueue hands entry to the background writer. It reports false once the
// publisher is closed; the read lock keeps Close from closing the channel
// under a pending send.
func (p *Publisher) enqueue(ctx context.Context, entry audit.Entry) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.buffer <- entry:
	default:
		p.metrics.incBufferDropped()
		p.logger.WarnContext(ctx, "audit buffer full, dropping entry", "kind", entry.Kind)
	}
	return true
}

// List returns the live entries recorded for actorID, newest first.
func (p *Publisher) List(ctx context.Context, actorID string) ([]audit.Entry, error) {
	return p.store.ListByActor(ctx, actorID, requestcontext.Now(ctx), 0)
}

// Close drains the async buffer. It is a no-op in synchronous mode and safe
// to call more than once.
func (p *Publisher) Close() {
	if p.buffer == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for entry := range p.buffer {
		p.persist(context.Background(), entry)
	}
}

func (p *Publisher) enrich(ctx context.Context, entry audit.Entry) audit.Entry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if category, ok := entry.Kind.Category(); ok && entry.Category == "" {
		entry.Category = category
	}
	if entry.Outcome == "" {
		entry.Outcome = audit.OutcomeSuccess
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	entry.Timestamp = entry.Timestamp.UTC()
	entry.ExpiresAt = entry.Timestamp.Add(p.retention)
	if entry.ActorID == "" {
		entry.ActorID = requestcontext.ActorID(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.IP == "" {
		entry.IP = requestcontext.ClientIP(ctx)
	}
	if entry.Device == "" {
		entry.Device = device.FromContext(ctx)
		if entry.Device == "" && requestcontext.UserAgent(ctx) != "" {
			entry.Device = device.Describe(requestcontext.UserAgent(ctx))
		}
	}
	return entry
}

func (p *Publisher) persist(ctx context.Context, entry audit.Entry) {
	if !p.breaker.Allow() {
		p.metrics.incCircuitDropped()
		return
	}

	// The caller's request may finish before an async write; keep values, drop cancellation.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := p.store.Append(writeCtx, entry); err != nil {
		p.metrics.incPersistFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.setCircuitOpen(true)
			p.logger.ErrorContext(ctx, "audit store circuit opened", "error", err)
		}
		p.logger.ErrorContext(ctx, "failed to persist audit entry",
			"kind", entry.Kind,
			"error", err,
		)
		return
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.setCircuitOpen(false)
		p.logger.InfoContext(ctx, "audit store circuit closed")
	}
	p.metrics.incRecorded(string(entry.Category))

	for _, sink := range p.sinks {
		if err := sink.Publish(writeCtx, entry); err != nil {
			p.metrics.incSinkFailures()
			p.logger.WarnContext(ctx, "failed to publish audit entry to sink",
				"kind", entry.Kind,
				"error", err,
			)
		}
	}
}

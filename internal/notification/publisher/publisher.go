// Package publisher fans stored notifications out to a Kafka topic. Delivery
// is best effort: a full buffer drops the oldest entries and an open circuit
// breaker holds entries back until a probe succeeds.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"compliancehub/internal/notification/metrics"
	"compliancehub/internal/notification/models"
	"compliancehub/pkg/platform/circuit"
	"compliancehub/pkg/platform/sentinel"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
	drainTimeout     = 5 * time.Second
)

// Sink produces one keyed record.
type Sink interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Message is the wire shape of a published notification.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	EntityID  string    `json:"entity_id"`
	SubjectID string    `json:"subject_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessage(n *models.Notification) Message {
	return Message{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		EntityID:  n.EntityID.String(),
		SubjectID: n.SubjectID.String(),
		CreatedAt: n.CreatedAt,
	}
}

type Publisher struct {
	sink      Sink
	buffer    *RingBuffer
	breaker   *circuit.Breaker
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Publisher)

func WithBufferCapacity(n int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(n)
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithInterval sets how often Run drains the buffer.
func WithInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:      sink,
		buffer:    NewRingBuffer(defaultCapacity),
		breaker:   circuit.New("notification-fanout"),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish buffers n for asynchronous delivery. It never blocks on the sink.
func (p *Publisher) Publish(_ context.Context, n *models.Notification) {
	evicted := p.buffer.Enqueue(n.Clone())
	if p.metrics != nil {
		if evicted {
			p.metrics.IncrementDropped()
		}
		p.metrics.SetBufferDepth(p.buffer.Len())
	}
}

// Pending returns the number of buffered notifications.
func (p *Publisher) Pending() int {
	return p.buffer.Len()
}

// Flush delivers buffered notifications in order until the buffer is empty
// or a produce fails. Undelivered entries stay buffered.
func (p *Publisher) Flush(ctx context.Context) (int, error) {
	sent := 0
	defer func() {
		if p.metrics != nil {
			p.metrics.SetBufferDepth(p.buffer.Len())
			if sent > 0 {
				p.metrics.IncrementPublished(sent)
			}
		}
	}()

	for {
		batch := p.buffer.DequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return sent, nil
		}
		for i, n := range batch {
			if !p.breaker.AllowProbe() {
				p.buffer.Requeue(batch[i:])
				return sent, fmt.Errorf("notification fan-out: %w", sentinel.ErrUnavailable)
			}
			if err := p.produce(ctx, n); err != nil {
				p.buffer.Requeue(batch[i:])
				p.recordFailure(ctx, err)
				return sent, fmt.Errorf("notification fan-out: %w", err)
			}
			p.recordSuccess(ctx)
			sent++
		}
	}
}

func (p *Publisher) produce(ctx context.Context, n *models.Notification) error {
	value, err := json.Marshal(toMessage(n))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return p.sink.Produce(ctx, []byte(n.EntityID.String()), value)
}

func (p *Publisher) recordFailure(ctx context.Context, err error) {
	_, change := p.breaker.RecordFailure()
	if p.metrics != nil {
		p.metrics.IncrementPublishFailure()
	}
	if change.Opened {
		p.logger.WarnContext(ctx, "notification fan-out circuit opened", "error", err)
		if p.metrics != nil {
			p.metrics.SetBreakerOpen(true)
		}
	}
}

func (p *Publisher) recordSuccess(ctx context.Context) {
	_, change := p.breaker.RecordSuccess()
	if change.Closed {
		p.logger.InfoContext(ctx, "notification fan-out circuit closed")
		if p.metrics != nil {
			p.metrics.SetBreakerOpen(false)
		}
	}
}

// Run drains the buffer on every interval until ctx is cancelled, then
// makes one last bounded attempt to deliver what is left.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			if _, err := p.Flush(drainCtx); err != nil {
				p.logger.WarnContext(ctx, "notification fan-out drain incomplete",
					"pending", p.buffer.Len(),
					"error", err,
				)
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Flush(ctx); err != nil {
				p.logger.DebugContext(ctx, "notification fan-out flush stopped",
					"pending", p.buffer.Len(),
					"error", err,
				)
			}
		}
	}
}

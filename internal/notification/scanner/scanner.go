// Package scanner runs the deadline scan on a fixed interval.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"compliancehub/internal/notification/models"
)

// DeadlineScanner emits deadline notifications for one instant.
type DeadlineScanner interface {
	ScanDeadlines(ctx context.Context, now time.Time, windowDays int) (models.ScanResult, error)
}

// Worker calls the scanner once at start and then on every tick. A failed
// scan is logged and retried on the next tick.
type Worker struct {
	scanner    DeadlineScanner
	interval   time.Duration
	windowDays int
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithClock overrides the scan instant source (tests).
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func NewWorker(scanner DeadlineScanner, interval time.Duration, windowDays int, opts ...Option) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	w := &Worker{
		scanner:    scanner,
		interval:   interval,
		windowDays: windowDays,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Worker) scan(ctx context.Context) {
	res, err := w.scanner.ScanDeadlines(ctx, w.now(), w.windowDays)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.ErrorContext(ctx, "deadline scan failed",
			"window_days", w.windowDays,
			"scanned", res.Scanned,
			"emitted", res.Emitted,
			"error", err,
		)
		return
	}
	w.logger.DebugContext(ctx, "deadline scan tick",
		"scanned", res.Scanned,
		"emitted", res.Emitted,
	)
}

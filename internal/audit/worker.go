package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Worker drains audit events from a channel into a sink so slow sinks
// (kafka, postgres) stay off the reconciliation path. Use BufferedSink as
// the publisher's sink and run the worker for the batch job's lifetime.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit sink append failed",
					"action", event.Action,
					"error", err.Error(),
				)
			}
		}
	}
}

// BufferedSink hands events to a channel for the worker. When the buffer is
// full the event is dropped rather than blocking the batch.
type BufferedSink struct {
	outbox chan Event
}

func NewBufferedSink(size int) *BufferedSink {
	return &BufferedSink{outbox: make(chan Event, size)}
}

// Events exposes the channel for the worker.
func (s *BufferedSink) Events() <-chan Event { return s.outbox }

func (s *BufferedSink) Append(_ context.Context, event Event) error {
	select {
	case s.outbox <- event:
	default:
	}
	return nil
}

// OutboxEntry is one unpublished outbox row.
type OutboxEntry struct {
	ID    uuid.UUID
	Event Event
}

// OutboxSource is the read side of a transactional outbox. Satisfied by
// *PostgresSink.
type OutboxSource interface {
	NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Relay ships committed outbox rows to a downstream sink. Events only reach
// the outbox inside a committed transaction, so everything the relay sees is
// durable; a failed downstream append leaves the row unpublished and the
// next tick retries it.
type Relay struct {
	source   OutboxSource
	sink     Sink
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewRelay(source OutboxSource, sink Sink, logger *slog.Logger) *Relay {
	return &Relay{
		source:   source,
		sink:     sink,
		interval: 2 * time.Second,
		batch:    100,
		logger:   logger,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.WarnContext(ctx, "audit outbox relay failed",
					"error", err.Error(),
				)
			}
		}
	}
}

// Drain publishes the backlog until the outbox is empty or an append fails.
// Rows publish in insert order; the first failure stops the pass so ordering
// holds within a project.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		entries, err := r.source.NextBatch(ctx, r.batch)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		published := make([]uuid.UUID, 0, len(entries))
		var appendErr error
		for _, entry := range entries {
			if appendErr = r.sink.Append(ctx, entry.Event); appendErr != nil {
				break
			}
			published = append(published, entry.ID)
		}
		if err := r.source.MarkPublished(ctx, published); err != nil {
			return err
		}
		if appendErr != nil {
			return appendErr
		}
	}
}

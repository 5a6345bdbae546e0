package audit

import (
	"context"
	"log/slog"

	"cadlink/pkg/requestcontext"
)

// Sink receives audit events. Implementations: in-memory (tests, dev),
// postgres outbox, kafka.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. Append failures are logged and
// swallowed: the audit trail must never abort a reconciliation batch.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

// Emit records an event. Safe on a nil publisher so callers can leave audit
// unwired in tests.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.sink == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.sink.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "audit append failed",
			"action", event.Action,
			"error", err.Error(),
		)
	}
}

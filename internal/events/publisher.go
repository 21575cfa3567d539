package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives published envelopes. A sink decides for itself which event
// types it cares about.
type Sink interface {
	Send(ctx context.Context, envelope Envelope) error
}

// Publisher logs every event and fans it out to the registered sinks.
// Delivery failures are logged, never returned to the caller.
type Publisher struct {
	source string

	mu    sync.RWMutex
	sinks []Sink
}

func NewPublisher(source string) *Publisher {
	return &Publisher{source: source}
}

func (p *Publisher) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// Publish emits an event about subjectID (a booking, project or payout id).
func (p *Publisher) Publish(ctx context.Context, eventType, subjectID string, data map[string]any) error {
	now := time.Now().UTC()
	envelope := Envelope{
		EventID:        "evt_" + uuid.NewString(),
		EventType:      eventType,
		SchemaVersion:  "1.0",
		IdempotencyKey: fmt.Sprintf("%s_%s_%d", eventType, subjectID, now.UnixNano()),
		Timestamp:      now,
		Source:         p.source,
		SubjectID:      subjectID,
		Data:           data,
	}

	slog.InfoContext(ctx, "event_published",
		"event_id", envelope.EventID,
		"event_type", eventType,
		"subject_id", subjectID,
	)

	p.mu.RLock()
	sinks := append([]Sink(nil), p.sinks...)
	p.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Send(ctx, envelope); err != nil {
			slog.WarnContext(ctx, "sink_failed", "event_type", eventType, "error", err)
		}
	}
	return nil
}

// Notify sends an operator notification at the given severity.
func (p *Publisher) Notify(ctx context.Context, message string, severity Severity) error {
	slog.Log(ctx, severity.level(), "notification",
		"severity", string(severity),
		"message", message,
	)
	return p.Publish(ctx, EventNotification, "", map[string]any{
		"message":  message,
		"severity": string(severity),
	})
}

func (s Severity) level() slog.Level {
	switch s {
	case SeverityCritical:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

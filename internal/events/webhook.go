package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookSink POSTs envelopes of selected event types to one URL.
type WebhookSink struct {
	url    string
	types  map[string]bool
	client *http.Client
}

// NewWebhookSink forwards only the listed event types; with none listed it
// forwards everything.
func NewWebhookSink(url string, eventTypes ...string) *WebhookSink {
	types := make(map[string]bool, len(eventTypes))
	for _, et := range eventTypes {
		types[et] = true
	}
	return &WebhookSink{
		url:    url,
		types:  types,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (w *WebhookSink) wants(eventType string) bool {
	return len(w.types) == 0 || w.types[eventType]
}

func (w *WebhookSink) Send(ctx context.Context, envelope Envelope) error {
	if !w.wants(envelope.EventType) {
		return nil
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-ID", envelope.EventID)
	req.Header.Set("X-Event-Type", envelope.EventType)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", w.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s: status %d", w.url, resp.StatusCode)
	}
	return nil
}

// Package webhook provides an outbound callback dispatcher with delivery, retry,
// and pluggable per-source signing. The gateway simulator uses it to push
// signed payment callbacks at the reconciliation service.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Signer signs a callback body. Some gateways sign in headers, others embed the
// signature in the body, so both may be rewritten.
type Signer interface {
	Sign(body []byte, secret string) (signed []byte, headers map[string]string, err error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(body []byte, secret string) ([]byte, map[string]string, error)

func (f SignerFunc) Sign(body []byte, secret string) ([]byte, map[string]string, error) {
	return f(body, secret)
}

// Endpoint is where and how callbacks from one source are delivered.
type Endpoint struct {
	// Path is appended to the dispatcher URL, e.g. "/webhook/paystack".
	Path   string
	Signer Signer
	Secret string
}

// Event is a callback waiting to be delivered.
type Event struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Type      string          `json:"type"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
}

// Delivery records a delivery attempt.
type Delivery struct {
	EventID    string    `json:"event_id"`
	Source     string    `json:"source"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Response   string    `json:"response,omitempty"`
	Error      string    `json:"error,omitempty"`
	Attempt    int       `json:"attempt"`
	Timestamp  time.Time `json:"timestamp"`
}

// Dispatcher manages outbound callback delivery.
type Dispatcher struct {
	mu          sync.RWMutex
	url         string
	endpoints   map[string]Endpoint
	logger      *slog.Logger
	queue       []Event
	deliveries  []Delivery
	maxRetries  int
	retryDelay  time.Duration
	client      *http.Client
	eventPrefix string
	counter     int
	autoDeliver bool
}

// Config configures the dispatcher.
type Config struct {
	URL         string
	Endpoints   map[string]Endpoint
	Logger      *slog.Logger
	MaxRetries  int
	RetryDelay  time.Duration
	EventPrefix string
	AutoDeliver bool // deliver asynchronously as soon as an event is queued
	HTTPClient  *http.Client
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	if cfg.EventPrefix == "" {
		cfg.EventPrefix = "evt"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	endpoints := make(map[string]Endpoint, len(cfg.Endpoints))
	for k, v := range cfg.Endpoints {
		endpoints[k] = v
	}

	return &Dispatcher{
		url:         strings.TrimRight(cfg.URL, "/"),
		endpoints:   endpoints,
		logger:      cfg.Logger,
		queue:       make([]Event, 0),
		deliveries:  make([]Delivery, 0),
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		client:      cfg.HTTPClient,
		eventPrefix: cfg.EventPrefix,
		autoDeliver: cfg.AutoDeliver,
	}
}

// SetURL updates the delivery base URL.
func (d *Dispatcher) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = strings.TrimRight(url, "/")
}

// URL returns the delivery base URL.
func (d *Dispatcher) URL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url
}

// SetEndpoint registers or replaces the endpoint for source.
func (d *Dispatcher) SetEndpoint(source string, ep Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints[source] = ep
}

// Enqueue queues body for delivery to source's endpoint. With AutoDeliver it is
// sent in the background.
func (d *Dispatcher) Enqueue(source, eventType string, body []byte) Event {
	d.mu.Lock()
	d.counter++
	evt := Event{
		ID:        fmt.Sprintf("%s_%06d", d.eventPrefix, d.counter),
		Source:    source,
		Type:      eventType,
		Body:      json.RawMessage(body),
		CreatedAt: time.Now(),
	}
	d.queue = append(d.queue, evt)
	autoDeliver := d.autoDeliver
	d.mu.Unlock()

	if autoDeliver {
		go d.deliverEvent(context.Background(), evt)
	}

	return evt
}

// Flush delivers all queued events synchronously and empties the queue.
func (d *Dispatcher) Flush(ctx context.Context) error {
	d.mu.Lock()
	events := make([]Event, len(d.queue))
	copy(events, d.queue)
	d.queue = d.queue[:0]
	d.mu.Unlock()

	var lastErr error
	for _, evt := range events {
		if err := d.deliverEvent(ctx, evt); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// FlushWebhooks implements admin.WebhookFlusher.
func (d *Dispatcher) FlushWebhooks() error {
	return d.Flush(context.Background())
}

func (d *Dispatcher) deliverEvent(ctx context.Context, evt Event) error {
	d.mu.RLock()
	base := d.url
	ep, ok := d.endpoints[evt.Source]
	d.mu.RUnlock()

	if base == "" {
		d.logger.Debug("no webhook URL configured, skipping delivery", "event_id", evt.ID)
		return nil
	}
	if !ok {
		return fmt.Errorf("no endpoint registered for source %q", evt.Source)
	}

	body := []byte(evt.Body)
	var headers map[string]string
	if ep.Signer != nil {
		var err error
		body, headers, err = ep.Signer.Sign(evt.Body, ep.Secret)
		if err != nil {
			return fmt.Errorf("sign %s: %w", evt.ID, err)
		}
	}
	url := base + ep.Path

	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := d.client.Do(req)
		delivery := Delivery{
			EventID:   evt.ID,
			Source:    evt.Source,
			URL:       url,
			Attempt:   attempt,
			Timestamp: time.Now(),
		}

		if err != nil {
			delivery.Error = err.Error()
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			delivery.StatusCode = resp.StatusCode
			delivery.Response = string(respBody)
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				d.record(delivery)
				return nil
			}
			lastErr = fmt.Errorf("webhook delivery failed: status %d", resp.StatusCode)
		}
		d.record(delivery)

		if attempt < d.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.retryDelay):
			}
		}
	}

	d.logger.Warn("webhook delivery gave up", "event_id", evt.ID, "source", evt.Source, "error", lastErr)
	return lastErr
}

func (d *Dispatcher) record(dl Delivery) {
	d.mu.Lock()
	d.deliveries = append(d.deliveries, dl)
	d.mu.Unlock()
}

// Deliveries returns all delivery records.
func (d *Dispatcher) Deliveries() []Delivery {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Delivery, len(d.deliveries))
	copy(out, d.deliveries)
	return out
}

// QueuedEvents returns all queued but undelivered events.
func (d *Dispatcher) QueuedEvents() []Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Event, len(d.queue))
	copy(out, d.queue)
	return out
}

// Reset clears the queue, the delivery log, and the event counter.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = d.queue[:0]
	d.deliveries = d.deliveries[:0]
	d.counter = 0
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// WebhookOptions configures a generic JSON webhook sink.
type WebhookOptions struct {
	Name    string
	URL     string
	Method  string
	Headers map[string]string
	// Template is a JSON object the alert fields are merged into, letting
	// operators carry static routing fields ({"channel":"#ops"}). Empty
	// means a bare object.
	Template string
	Timeout  time.Duration
}

// WebhookSink posts alerts to an arbitrary JSON endpoint.
type WebhookSink struct {
	name    string
	url     string
	method  string
	headers map[string]string
	base    string
	client  *http.Client
}

// NewWebhookSink creates a sink from options. The template, when set, must be
// a JSON object.
func NewWebhookSink(opts WebhookOptions) (*WebhookSink, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("webhook sink requires a url")
	}
	name := opts.Name
	if name == "" {
		name = "webhook"
	}
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodPost
	}
	base := strings.TrimSpace(opts.Template)
	if base == "" {
		base = "{}"
	}
	if !gjson.Valid(base) || !strings.HasPrefix(base, "{") {
		return nil, fmt.Errorf("webhook sink %s: template must be a JSON object", name)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		name:    name,
		url:     opts.URL,
		method:  method,
		headers: opts.Headers,
		base:    base,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return s.name }

// Send implements Sink. The payload is the configured template with the
// alert fields set on top of it.
func (s *WebhookSink) Send(ctx context.Context, ev *detect.Event, msg Message) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook %s: marshaling event: %w", s.name, err)
	}

	payload := s.base
	for _, set := range []struct {
		path  string
		value any
	}{
		{"kind", string(ev.Kind)},
		{"text", msg.Text()},
		{"subject", msg.Subject()},
		{"emitted_at", ev.At.UTC().Format(time.RFC3339)},
	} {
		if payload, err = sjson.Set(payload, set.path, set.value); err != nil {
			return fmt.Errorf("webhook %s: building payload: %w", s.name, err)
		}
	}
	if payload, err = sjson.SetRaw(payload, "event", string(raw)); err != nil {
		return fmt.Errorf("webhook %s: building payload: %w", s.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader([]byte(payload)))
	if err != nil {
		return fmt.Errorf("webhook %s: building request: %w", s.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s returned status %d", s.name, resp.StatusCode)
	}

	return nil
}

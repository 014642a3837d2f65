package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// SlackSink posts alerts to a Slack incoming webhook using Block Kit.
type SlackSink struct {
	webhookURL string
	client     *http.Client
}

// NewSlackSink creates a sink for the given Slack webhook URL.
func NewSlackSink(webhookURL string, timeout time.Duration) *SlackSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SlackSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name implements Sink.
func (s *SlackSink) Name() string { return "slack" }

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send implements Sink. The payload carries the plain text as a notification
// fallback plus a mrkdwn section and a context line with the event time.
func (s *SlackSink) Send(ctx context.Context, ev *detect.Event, msg Message) error {
	payload := slackMessage{
		Text: msg.Text(),
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: msg.Emoji + " " + msg.Body},
			},
			{
				Type: "context",
				Elements: []slackText{
					{Type: "mrkdwn", Text: "*When:* " + ev.At.UTC().Format("2006-01-02 15:04:05 UTC")},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

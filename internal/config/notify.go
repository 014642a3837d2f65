// Notification sink settings.
//
// DESIGN: Each sink is enabled by filling in its address and disabled by
// leaving it empty. With every sink empty the dispatcher runs in log-only
// mode, which is the development default.
package config

import (
	"fmt"
	"strings"
	"time"
)

// NotifyConfig contains alert sink settings.
type NotifyConfig struct {
	SlackWebhookURL string            `yaml:"slack_webhook_url"` // Slack-compatible incoming webhook
	WebhookURL      string            `yaml:"webhook_url"`       // Generic JSON webhook
	WebhookTemplate string            `yaml:"webhook_template"`  // JSON object the alert fields are merged into
	WebhookHeaders  map[string]string `yaml:"webhook_headers"`   // Extra headers for the generic webhook
	SNS             SNSConfig         `yaml:"sns"`               // AWS SNS topic
	QueueSize       int               `yaml:"queue_size"`        // Dispatch queue length
	HistorySize     int               `yaml:"history_size"`      // Retained deliveries for /alerts
	Timeout         time.Duration     `yaml:"timeout"`           // Per-sink delivery timeout
}

// SNSConfig configures the SNS sink. An empty topic ARN disables it.
type SNSConfig struct {
	TopicARN string `yaml:"topic_arn"`
	Region   string `yaml:"region"` // Optional, derived from the ARN when empty
}

// Validate checks the notify section.
func (c NotifyConfig) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("notify.queue_size must be positive, got %d", c.QueueSize)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("notify.history_size must be positive, got %d", c.HistorySize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be positive, got %s", c.Timeout)
	}
	if c.SNS.TopicARN != "" && !strings.HasPrefix(c.SNS.TopicARN, "arn:") {
		return fmt.Errorf("invalid notify.sns.topic_arn: %q", c.SNS.TopicARN)
	}
	return nil
}

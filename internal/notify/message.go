// Package notify formats detected events and delivers them to alert sinks.
//
// DESIGN: One Dispatcher owns a bounded queue and a single delivery worker so
// a slow webhook can never stall log consumption. Sinks are pluggable
// (Slack, generic webhook, SNS); with no sinks configured the dispatcher runs
// in log-only mode, which is a supported degraded state, not an error.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// Message is a formatted alert ready for delivery.
type Message struct {
	Kind  detect.Kind
	Emoji string
	Body  string
}

// Text renders the single-line-safe plain form used by sinks that take one
// text field (Slack fallback text, SNS, generic webhooks).
func (m Message) Text() string {
	return m.Emoji + " " + m.Body
}

// Subject renders a short one-line summary for sinks with a subject field.
func (m Message) Subject() string {
	switch m.Kind {
	case detect.KindFailover:
		return "Failover detected"
	case detect.KindHighErrorRate:
		return "High error rate detected"
	default:
		return "Pool watcher alert"
	}
}

// kindEmoji maps an alert kind to its presentation marker. Recovery and info
// are reserved kinds; only the two detector kinds fire today.
func kindEmoji(kind string) string {
	switch kind {
	case "failover":
		return "\U0001f504"
	case "high_error_rate":
		return "\U0001f6a8"
	case "recovery":
		return "✅"
	case "info":
		return "ℹ️"
	default:
		return "\U0001f4e2"
	}
}

// Format renders the operator-facing message for one event. The action
// checklists are fixed per kind; runbooks reference this exact wording.
func Format(ev *detect.Event) Message {
	msg := Message{Kind: ev.Kind, Emoji: kindEmoji(string(ev.Kind))}
	switch ev.Kind {
	case detect.KindFailover:
		msg.Body = failoverBody(ev)
	case detect.KindHighErrorRate:
		msg.Body = errorRateBody(ev)
	default:
		msg.Body = fmt.Sprintf("*Watcher event:* %s", ev.Kind)
	}
	return msg
}

func failoverBody(ev *detect.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Failover Detected!*\n")
	fmt.Fprintf(&b, "Pool changed: *%s* → *%s*\n\n", ev.PrevPool, ev.Pool)
	b.WriteString("*Action Required:*\n")
	fmt.Fprintf(&b, "• Check health of %s container\n", ev.PrevPool)
	fmt.Fprintf(&b, "• Review %s logs for errors\n", ev.PrevPool)
	fmt.Fprintf(&b, "• Verify %s is handling traffic correctly\n\n", ev.Pool)
	b.WriteString("See runbook for detailed response steps.")
	return b.String()
}

func errorRateBody(ev *detect.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*High Error Rate Detected!*\n")
	fmt.Fprintf(&b, "Error rate: *%.2f%%* (threshold: %s%%)\n", ev.ErrorRate, formatThreshold(ev.Threshold))
	fmt.Fprintf(&b, "Errors: %d/%d requests returned 5xx\n\n", ev.ErrorCount, ev.WindowSize)
	b.WriteString("*Action Required:*\n")
	b.WriteString("• Check upstream application logs\n")
	b.WriteString("• Verify database connectivity\n")
	b.WriteString("• Consider manual pool toggle if issues persist\n")
	b.WriteString("• Review resource usage (CPU, memory)\n\n")
	b.WriteString("See runbook for detailed response steps.")
	return b.String()
}

// formatThreshold prints thresholds without float noise: 2 -> "2", 2.5 -> "2.5".
func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

func failoverEvent() *detect.Event {
	return &detect.Event{
		ID:       "ev-1",
		Kind:     detect.KindFailover,
		At:       time.Date(2026, 8, 21, 14, 3, 58, 0, time.UTC),
		Pool:     "green",
		PrevPool: "blue",
		Release:  "v1.4.2",
	}
}

func errorRateEvent() *detect.Event {
	return &detect.Event{
		ID:         "ev-2",
		Kind:       detect.KindHighErrorRate,
		At:         time.Date(2026, 8, 21, 14, 5, 0, 0, time.UTC),
		ErrorRate:  5.5,
		ErrorCount: 11,
		WindowSize: 200,
		Threshold:  2,
	}
}

// TestFormatFailover pins the exact operator-facing wording. Runbooks link
// to this text, so changes here are breaking changes.
func TestFormatFailover(t *testing.T) {
	msg := Format(failoverEvent())

	require.Equal(t, detect.KindFailover, msg.Kind)
	assert.Equal(t, "\U0001f504", msg.Emoji)

	want := "*Failover Detected!*\n" +
		"Pool changed: *blue* → *green*\n\n" +
		"*Action Required:*\n" +
		"• Check health of blue container\n" +
		"• Review blue logs for errors\n" +
		"• Verify green is handling traffic correctly\n\n" +
		"See runbook for detailed response steps."
	assert.Equal(t, want, msg.Body)
	assert.Equal(t, msg.Emoji+" "+want, msg.Text())
	assert.Equal(t, "Failover detected", msg.Subject())
}

func TestFormatHighErrorRate(t *testing.T) {
	msg := Format(errorRateEvent())

	require.Equal(t, detect.KindHighErrorRate, msg.Kind)
	assert.Equal(t, "\U0001f6a8", msg.Emoji)

	want := "*High Error Rate Detected!*\n" +
		"Error rate: *5.50%* (threshold: 2%)\n" +
		"Errors: 11/200 requests returned 5xx\n\n" +
		"*Action Required:*\n" +
		"• Check upstream application logs\n" +
		"• Verify database connectivity\n" +
		"• Consider manual pool toggle if issues persist\n" +
		"• Review resource usage (CPU, memory)\n\n" +
		"See runbook for detailed response steps."
	assert.Equal(t, want, msg.Body)
	assert.Equal(t, "High error rate detected", msg.Subject())
}

func TestFormatThreshold(t *testing.T) {
	assert.Equal(t, "2", formatThreshold(2.0))
	assert.Equal(t, "2.5", formatThreshold(2.5))
	assert.Equal(t, "25", formatThreshold(25.0))
	assert.Equal(t, "0.1", formatThreshold(0.1))
}

func TestKindEmoji(t *testing.T) {
	assert.Equal(t, "\U0001f504", kindEmoji("failover"))
	assert.Equal(t, "\U0001f6a8", kindEmoji("high_error_rate"))
	assert.Equal(t, "✅", kindEmoji("recovery"))
	assert.Equal(t, "ℹ️", kindEmoji("info"))
	assert.Equal(t, "\U0001f4e2", kindEmoji("anything-else"))
}

package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWindowBound(t *testing.T) {
	w := NewWindow(3)
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 3, w.Cap())
	assert.False(t, w.Full())

	w.Append(200)
	w.Append(201)
	assert.Equal(t, 2, w.Len())
	assert.False(t, w.Full())

	w.Append(202)
	require.True(t, w.Full())

	// Appends beyond capacity evict oldest-first.
	w.Append(500)
	assert.Equal(t, 3, w.Len(), "length never exceeds capacity")
	assert.Equal(t, []int{201, 202, 500}, w.Statuses(), "oldest entry ages out first")

	w.Append(203)
	assert.Equal(t, []int{202, 500, 203}, w.Statuses())
}

func TestWindowErrorCount(t *testing.T) {
	w := NewWindow(4)
	for _, s := range []int{200, 502, 301, 500} {
		w.Append(s)
	}
	assert.Equal(t, 2, w.ErrorCount())
	assert.InDelta(t, 50.0, w.ErrorRate(), 1e-9)

	// Evicting an error keeps the count consistent.
	w.Append(404)
	assert.Equal(t, []int{502, 301, 500, 404}, w.Statuses())
	assert.Equal(t, 2, w.ErrorCount())

	w.Append(200) // evicts the 502
	assert.Equal(t, 1, w.ErrorCount())
	assert.InDelta(t, 25.0, w.ErrorRate(), 1e-9)
}

func TestWindowCapacityOne(t *testing.T) {
	w := NewWindow(1)
	assert.False(t, w.Full())
	w.Append(500)
	assert.True(t, w.Full())
	assert.Equal(t, 1, w.ErrorCount())
	w.Append(200)
	assert.Equal(t, 0, w.ErrorCount())
	assert.Equal(t, []int{200}, w.Statuses())
}

func TestWindowEmptyRateIsZero(t *testing.T) {
	w := NewWindow(5)
	assert.Zero(t, w.ErrorRate())
	assert.Zero(t, w.ErrorCount())
}

func TestNewWindowClampsCapacity(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, 1, w.Cap())
	w = NewWindow(-3)
	assert.Equal(t, 1, w.Cap())
}

// TestWindowProperties drives random append sequences and checks the window
// against a naive model: contents are always the last N appends, and the
// cached error count matches a full recount.
func TestWindowProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		count := rapid.IntRange(0, 200).Draw(t, "count")
		w := NewWindow(capacity)

		var all []int
		for i := 0; i < count; i++ {
			status := rapid.IntRange(100, 599).Draw(t, "status")
			w.Append(status)
			all = append(all, status)

			if w.Len() > capacity {
				t.Fatalf("length %d exceeds capacity %d", w.Len(), capacity)
			}
		}

		want := all
		if len(want) > capacity {
			want = want[len(want)-capacity:]
		}
		got := w.Statuses()
		if len(got) != len(want) {
			t.Fatalf("held %d statuses, want %d", len(got), len(want))
		}
		recount := 0
		for i, s := range want {
			if got[i] != s {
				t.Fatalf("status[%d] = %d, want %d", i, got[i], s)
			}
			if IsError(s) {
				recount++
			}
		}
		if w.ErrorCount() != recount {
			t.Fatalf("cached error count %d, recount %d", w.ErrorCount(), recount)
		}
	})
}

package detect

// IsError reports whether a status code counts toward the error rate.
// Anything the upstream answered with 5xx (or worse) is an error.
func IsError(status int) bool { return status >= 500 }

// Window is a fixed-capacity FIFO of the most recent upstream status codes.
// Appending at capacity evicts the oldest entry. The error count is kept
// incrementally so Append stays O(1).
type Window struct {
	statuses []int
	start    int
	length   int
	errors   int
}

// NewWindow creates an empty window holding up to capacity statuses.
// Capacities below 1 are raised to 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{statuses: make([]int, capacity)}
}

// Append records one status, evicting the oldest entry when full.
func (w *Window) Append(status int) {
	if w.length == len(w.statuses) {
		evicted := w.statuses[w.start]
		if IsError(evicted) {
			w.errors--
		}
		w.statuses[w.start] = status
		w.start = (w.start + 1) % len(w.statuses)
	} else {
		w.statuses[(w.start+w.length)%len(w.statuses)] = status
		w.length++
	}
	if IsError(status) {
		w.errors++
	}
}

// Len returns the number of statuses currently held.
func (w *Window) Len() int { return w.length }

// Cap returns the fixed capacity N.
func (w *Window) Cap() int { return len(w.statuses) }

// Full reports whether the window holds exactly N statuses. Once full it
// stays full; appends slide the window.
func (w *Window) Full() bool { return w.length == len(w.statuses) }

// ErrorCount returns how many held statuses are errors (>= 500).
func (w *Window) ErrorCount() int { return w.errors }

// ErrorRate returns the error percentage over the current contents,
// 0 when empty. Only meaningful for alerting once the window is full.
func (w *Window) ErrorRate() float64 {
	if w.length == 0 {
		return 0
	}
	return float64(w.errors) / float64(w.length) * 100
}

// Statuses returns the held statuses oldest-first. The slice is a copy.
func (w *Window) Statuses() []int {
	out := make([]int, w.length)
	for i := 0; i < w.length; i++ {
		out[i] = w.statuses[(w.start+i)%len(w.statuses)]
	}
	return out
}

package tailer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Polling mode keeps these tests independent of inotify availability.

func waitLine(t *testing.T, lines <-chan Line) Line {
	t.Helper()
	select {
	case l, ok := <-lines:
		require.True(t, ok, "lines channel closed unexpectedly")
		return l
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for line")
		return Line{}
	}
}

func appendLine(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(text + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFollowFromStartReadsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	appendLine(t, path, "first")
	appendLine(t, path, "second")

	tr, err := Follow(path, Options{FromStart: true, Poll: true})
	require.NoError(t, err)
	defer tr.Stop()

	assert.Equal(t, path, tr.Path())
	assert.Equal(t, "first", waitLine(t, tr.Lines()).Text)
	assert.Equal(t, "second", waitLine(t, tr.Lines()).Text)

	appendLine(t, path, "third")
	assert.Equal(t, "third", waitLine(t, tr.Lines()).Text)
}

func TestFollowFromEndSkipsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	appendLine(t, path, "old entry")

	tr, err := Follow(path, Options{Poll: true})
	require.NoError(t, err)
	defer tr.Stop()

	appendLine(t, path, "new entry")
	assert.Equal(t, "new entry", waitLine(t, tr.Lines()).Text,
		"tailing from the end must only see appended lines")
}

// TestFollowWaitsForFile covers startup before nginx wrote anything: the
// file may not exist yet when the watcher starts.
func TestFollowWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-yet.log")

	tr, err := Follow(path, Options{FromStart: true, Poll: true})
	require.NoError(t, err, "a missing file is not an error")
	defer tr.Stop()

	time.Sleep(300 * time.Millisecond)
	appendLine(t, path, "appeared")
	assert.Equal(t, "appeared", waitLine(t, tr.Lines()).Text)
}

func TestStopClosesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	appendLine(t, path, "x")

	tr, err := Follow(path, Options{Poll: true})
	require.NoError(t, err)
	require.NoError(t, tr.Stop())

	select {
	case _, ok := <-tr.Lines():
		assert.False(t, ok, "lines channel must close after Stop")
	case <-time.After(5 * time.Second):
		t.Fatal("lines channel did not close")
	}

	require.NoError(t, tr.Stop(), "second Stop is a no-op")
}

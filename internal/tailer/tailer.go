// Package tailer follows a growing log file and hands complete lines to the
// watcher.
//
// DESIGN: Thin wrapper over nxadm/tail (the maintained hpcloud/tail fork):
//   - Waits for the file to appear instead of erroring
//   - Survives rotation and truncation (tail -F semantics)
//   - Defaults to reading from the end so restarts do not replay history
//
// The wrapper keeps nxadm types out of the core: consumers only see Line.
package tailer

import (
	"io"
	"os"
	"sync"

	"github.com/nxadm/tail"
	"github.com/rs/zerolog/log"
)

// Line is one complete log line, or a terminal read error.
type Line struct {
	Text string
	Err  error
}

// Options tunes how the file is followed.
type Options struct {
	// FromStart reads the whole existing file before following. The default
	// (false) starts at the current end, matching tail -F.
	FromStart bool
	// Poll uses filesystem polling instead of inotify. Needed on NFS and in
	// some containers.
	Poll bool
}

// Tailer follows one file.
type Tailer struct {
	t     *tail.Tail
	lines chan Line

	done     chan struct{}
	stopOnce sync.Once
}

// Follow starts tailing path. The file does not need to exist yet; the
// tailer waits for it to appear and reopens it after rotation.
func Follow(path string, opts Options) (*Tailer, error) {
	cfg := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      opts.Poll,
		Logger:    zerologAdapter{},
	}
	if !opts.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("Log file not found yet, waiting for it to appear")
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return nil, err
	}

	tr := &Tailer{
		t:     t,
		lines: make(chan Line),
		done:  make(chan struct{}),
	}
	go tr.pump()
	return tr, nil
}

// Lines returns the channel of followed lines. It closes when the tailer
// stops, after a final Line carrying the terminal error if there was one.
func (tr *Tailer) Lines() <-chan Line { return tr.lines }

// Path returns the followed file path.
func (tr *Tailer) Path() string { return tr.t.Filename }

// Stop terminates following and releases watcher resources.
func (tr *Tailer) Stop() error {
	tr.stopOnce.Do(func() { close(tr.done) })
	err := tr.t.Stop()
	tr.t.Cleanup()
	return err
}

func (tr *Tailer) pump() {
	defer close(tr.lines)
	for line := range tr.t.Lines {
		if line == nil {
			continue
		}
		select {
		case tr.lines <- Line{Text: line.Text, Err: line.Err}:
		case <-tr.done:
			return
		}
	}
	if err := tr.t.Wait(); err != nil {
		select {
		case tr.lines <- Line{Err: err}:
		case <-tr.done:
		}
	}
}

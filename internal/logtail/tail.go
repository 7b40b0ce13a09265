// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logtail follows the append-only session log and emits each newly
// appended line, for the log viewer screen.
package logtail

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// TAILER
// =============================================================================

// Tailer watches the session log file and calls emit once per complete
// appended line, in file order. Partial writes are buffered until their
// newline arrives. Only lines appended after Start are reported.
type Tailer struct {
	path string
	emit func(line string)

	// PollInterval is the fallback scan interval for appends that arrive
	// without a filesystem notification. Zero selects the default.
	PollInterval time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	offset  int64
	partial []byte
}

const defaultPollInterval = 500 * time.Millisecond

// NewTailer creates a tailer for path. emit is called from the tailer's
// goroutine; the event bus publisher is a safe target.
func NewTailer(path string, emit func(line string)) *Tailer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tailer{path: path, emit: emit, ctx: ctx, cancel: cancel}
}

// Start begins following the file from its current end. The file may not
// exist yet; it is picked up when created.
func (t *Tailer) Start() error {
	if info, err := os.Stat(t.path); err == nil {
		t.offset = info.Size()
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		// Watch the directory: the log file may be created or replaced
		// after Start.
		if addErr := watcher.Add(filepath.Dir(t.path)); addErr != nil {
			watcher.Close()
			watcher = nil
		}
	} else {
		watcher = nil
	}
	t.watcher = watcher

	go t.run()
	return nil
}

// Close stops the tailer.
func (t *Tailer) Close() error {
	t.cancel()
	if t.watcher != nil {
		return t.watcher.Close()
	}
	return nil
}

// =============================================================================
// EVENT LOOP
// =============================================================================

func (t *Tailer) run() {
	interval := t.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if t.watcher != nil {
		events = t.watcher.Events
		errs = t.watcher.Errors
	}

	for {
		select {
		case <-t.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Name != t.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.readNew()
			}

		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
			// Notification errors are non-fatal; polling still covers us.

		case <-ticker.C:
			t.readNew()
		}
	}
}

// readNew reads everything appended since the last read and emits the
// complete lines. A shrunken file means truncation; reading restarts from
// the top.
func (t *Tailer) readNew() {
	info, err := os.Stat(t.path)
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		t.offset = 0
		t.partial = nil
	}
	if info.Size() == t.offset {
		return
	}

	file, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer file.Close()

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(file)
	if err != nil && len(data) == 0 {
		return
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(buf[:i], "\r"))
		buf = buf[i+1:]
		if line != "" {
			t.emit(line)
		}
	}
	t.partial = append([]byte(nil), buf...)
}

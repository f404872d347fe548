package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces a burst of events for one file into a single event.
// Editors rarely write a file once: a save is often truncate+write, or
// write-to-temp followed by a rename over the original. The coalesced
// operation compares whether the file existed before the burst with
// whether it exists after the latest event:
//   - CREATE + MODIFY = CREATE
//   - CREATE + DELETE = nothing
//   - MODIFY + DELETE = DELETE
//   - DELETE + CREATE = MODIFY (file was replaced)
//   - RENAME + CREATE = MODIFY (file was replaced)
type Debouncer struct {
	window        time.Duration
	mu            sync.Mutex
	pending       *FileEvent
	existedBefore bool
	timer         *time.Timer
	output        chan FileEvent
	stopped       bool
}

// NewDebouncer creates a new debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		output: make(chan FileEvent, 1),
	}
}

// Add adds an event to the current burst and restarts the window.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.pending == nil {
		ev := event
		d.pending = &ev
		d.existedBefore = event.Operation != OpCreate
	} else {
		d.pending = coalesce(d.existedBefore, event)
		if d.pending == nil {
			d.stopTimer()
			return
		}
	}

	d.stopTimer()
	d.timer = time.AfterFunc(d.window, d.flush)
}

// coalesce returns the burst's event after next. Returns nil if the file
// neither existed before the burst nor exists now.
func coalesce(existedBefore bool, next FileEvent) *FileEvent {
	existsNow := next.Operation == OpCreate || next.Operation == OpModify
	switch {
	case existedBefore && existsNow:
		next.Operation = OpModify
	case !existedBefore && existsNow:
		next.Operation = OpCreate
	case !existedBefore && !existsNow:
		return nil
	}
	return &next
}

func (d *Debouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// flush emits the pending event.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.pending == nil {
		return
	}

	ev := *d.pending
	d.pending = nil
	d.timer = nil

	select {
	case d.output <- ev:
	default:
		// A reload is already queued and will read the latest file anyway.
		slog.Debug("debouncer output full, dropping event",
			slog.String("path", ev.Path),
			slog.String("op", ev.Operation.String()))
	}
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan FileEvent {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopped = true
	d.stopTimer()
	close(d.output)
}

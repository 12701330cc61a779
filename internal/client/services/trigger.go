package services

import (
	"sync"
	"time"
)

// Trigger coalesces a burst of local mutations into one sync cycle: every
// Kick resets the quiet-window timer, and fire runs only after the window
// elapses with no further kicks. Reconnects and manual syncs bypass the
// trigger and invoke the coordinator directly.
type Trigger struct {
	mu    sync.Mutex
	timer *time.Timer
	quiet time.Duration
	fire  func()
}

// NewTrigger builds a trigger with the given quiet window. fire is invoked
// on the timer's goroutine; it must tolerate the coordinator reporting
// in-flight or offline skips.
func NewTrigger(quiet time.Duration, fire func()) *Trigger {
	return &Trigger{quiet: quiet, fire: fire}
}

// Kick schedules a sync after the quiet window, resetting any pending timer.
func (t *Trigger) Kick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, t.fire)
}

// Stop cancels a pending sync, if any.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

package offgrid

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMustNewConnectivityWatcher_NilPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustNewConnectivityWatcher should panic with nil ModeManager")
		} else {
			// Verify panic message
			msg, ok := r.(string)
			if !ok || msg != "offgrid: MustNewConnectivityWatcher requires non-nil ModeManager" {
				t.Errorf("Unexpected panic message: %v", r)
			}
		}
	}()

	// This should panic
	MustNewConnectivityWatcher(nil, WatcherConfig{})
}

// toggleChecker is a ConnectivityChecker whose result can be flipped from
// the test goroutine while the watcher polls it concurrently.
type toggleChecker struct {
	online atomic.Bool
}

func (c *toggleChecker) Check(ctx context.Context) bool {
	return c.online.Load()
}

// TestConnectivityWatcherTransitionsModeManager drives a real Start loop
// against a ModeManager and asserts both directions of the online/offline
// transition, exercising the hysteresis thresholds rather than only
// constructing the watcher.
func TestConnectivityWatcherTransitionsModeManager(t *testing.T) {
	mm := NewModeManager(ModeOnline)
	checker := &toggleChecker{}

	checkDone := make(chan struct{}, 64)
	watcher := NewConnectivityWatcher(mm, WatcherConfig{
		Checker:              checker,
		Interval:             5 * time.Millisecond,
		CheckTimeout:         50 * time.Millisecond,
		ConsecutiveFailures:  1,
		ConsecutiveSuccesses: 1,
		OnCheckComplete: func(online bool, _ time.Duration) {
			select {
			case checkDone <- struct{}{}:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)

	waitForCondition(t, checkDone, func() bool { return mm.GetMode() == ModeOffline })

	checker.online.Store(true)
	waitForCondition(t, checkDone, func() bool { return mm.GetMode() == ModeOnline })

	if stats := watcher.Stats(); stats.TotalChecks == 0 {
		t.Error("expected watcher to have recorded at least one check")
	}
}

func waitForCondition(t *testing.T, signal chan struct{}, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-signal:
		case <-deadline:
			t.Fatal("timed out waiting for connectivity watcher to transition mode")
		}
	}
}

package services

import (
	"context"
	"testing"
	"time"
)

func TestNotifierRunner_Lifecycle(t *testing.T) {
	s := notifierStore(t)
	pub := &recordingPublisher{}
	n, _ := newTestNotifier(t, s, pub)

	cfg := DefaultNotifierConfig()
	r := NewNotifierRunner(n, cfg)
	r.now = func() time.Time { return checkTime }
	ctx := context.Background()

	if r.IsRunning() {
		t.Fatal("runner should not be running before Start")
	}
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop on idle runner: %v", err)
	}

	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.alertCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pub.alertCount(); got != 2 {
		t.Errorf("startup check published %d alerts, want 2", got)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.IsRunning() {
		t.Error("runner still running after Stop")
	}
}

func TestNotifierRunner_StopsWithContext(t *testing.T) {
	n, _ := newTestNotifier(t, notifierStore(t), &recordingPublisher{})
	r := NewNotifierRunner(n, NotifierConfig{Interval: time.Hour, CleanupInterval: time.Hour, DedupWindow: time.Hour})
	r.now = func() time.Time { return checkTime }

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case <-r.doneCh:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit on context cancellation")
	}
}

func TestDefaultNotifierConfig(t *testing.T) {
	cfg := DefaultNotifierConfig()
	if cfg.Interval != time.Hour || cfg.WarningPercent != 90 || cfg.DedupWindow != 24*time.Hour || cfg.CleanupInterval != time.Hour {
		t.Errorf("defaults = %+v", cfg)
	}
}

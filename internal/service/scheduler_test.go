package service

import (
	"context"
	"testing"
	"time"
)

func TestSchedulerKeylessRunsOnceAndReturns(t *testing.T) {
	client := trackerFakeClient()
	cfg := trackerConfig()
	cfg.Opinion.APIKey = ""
	tracker := NewWhaleTracker(client, cfg, testLogger())

	scheduler := NewRefreshScheduler(tracker, time.Second, testLogger())

	done := make(chan struct{})
	go func() {
		scheduler.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("keyless scheduler must return after the initial empty refresh")
	}
	if tracker.Current() == nil {
		t.Error("initial refresh must install a snapshot")
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	client := trackerFakeClient()
	tracker := NewWhaleTracker(client, trackerConfig(), testLogger())
	scheduler := NewRefreshScheduler(tracker, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	// 等到至少一轮初始刷新完成
	deadline := time.Now().Add(2 * time.Second)
	for tracker.Current() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler must stop when context is cancelled")
	}
}

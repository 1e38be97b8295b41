package retention

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakePurger struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakePurger) PurgeExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestRunOnce(t *testing.T) {
	p := &fakePurger{n: 3}
	if got := NewSweeper(p).RunOnce(context.Background()); got != 3 {
		t.Errorf("RunOnce = %d, want 3", got)
	}
}

func TestRunOnce_FailureIsSwallowed(t *testing.T) {
	p := &fakePurger{n: 3, err: errors.New("database is locked")}
	if got := NewSweeper(p).RunOnce(context.Background()); got != 0 {
		t.Errorf("RunOnce = %d, want 0 on failure", got)
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected one purge call, got %d", p.calls.Load())
	}
}

func TestRun_DisabledInterval(t *testing.T) {
	p := &fakePurger{}
	done := make(chan struct{})
	go func() {
		NewSweeper(p).Run(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with zero interval did not return")
	}
	if p.calls.Load() != 0 {
		t.Errorf("expected no sweeps, got %d", p.calls.Load())
	}
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	p := &fakePurger{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(p).Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if p.calls.Load() < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", p.calls.Load())
	}
}

package common

import (
	"errors"
	"testing"
)

func TestCallGuardRejectsNesting(t *testing.T) {
	guard := NewCallGuard()
	err := guard.Run(func() error {
		return guard.Run(func() error {
			t.Fatal("nested critical section entered")
			return nil
		})
	})
	if !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("got %v, want ErrReentrantCall", err)
	}
}

func TestCallGuardReleasesAfterError(t *testing.T) {
	guard := NewCallGuard()
	boom := errors.New("boom")
	if err := guard.Run(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped fn error", err)
	}
	// The guard must be reusable after a failed run.
	if err := guard.Run(func() error { return nil }); err != nil {
		t.Fatalf("guard stuck after error: %v", err)
	}
}

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuardChecksPauseView(t *testing.T) {
	pauses := pauseMap{"inscriptions": true}
	if err := Guard(pauses, "inscriptions"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("got %v, want ErrModulePaused", err)
	}
	if err := Guard(pauses, "orderbook"); err != nil {
		t.Fatalf("unpaused module blocked: %v", err)
	}
	// A nil view means no pause configuration; everything runs.
	if err := Guard(nil, "inscriptions"); err != nil {
		t.Fatalf("nil view blocked: %v", err)
	}
}

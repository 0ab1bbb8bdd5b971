package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeWatcherDeliversInOrder(t *testing.T) {
	f := NewFakeWatcher()
	t0 := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	f.Motion(t0)
	f.Clear(t0.Add(time.Second))
	f.Fault(t0.Add(2*time.Second), errors.New("boom"))

	want := []Kind{Motion, Clear, Fault}
	for i, k := range want {
		e := <-f.Events()
		if e.Kind != k {
			t.Errorf("event %d: got %s, want %s", i, e.Kind, k)
		}
		if k == Fault && e.Err == nil {
			t.Error("fault event missing error")
		}
	}
}

func TestFakeWatcherClose(t *testing.T) {
	f := NewFakeWatcher()
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("expected Closed")
	}
	if _, ok := <-f.Events(); ok {
		t.Error("expected closed channel")
	}
	// Second close must not panic.
	if err := f.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{Motion: "MOTION", Clear: "CLEAR", Fault: "FAULT", Kind(99): "UNKNOWN"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String(): got %q, want %q", k, got, want)
		}
	}
}

package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	m := NewManager()

	un1, err := m.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer un1()

	if _, err := m.Register("s1", Handle{}); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("err=%v, want ErrDuplicateSession", err)
	}
	if got := m.Count(); got != 1 {
		t.Fatalf("count=%d, want 1", got)
	}

	un1()
	if got := m.Count(); got != 0 {
		t.Fatalf("count=%d after unregister, want 0", got)
	}

	// The id is free again after the first session ends.
	un2, err := m.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	un2()
}

func TestUnregisterIsIdempotent(t *testing.T) {
	m := NewManager()
	un, err := m.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	un()
	un()
	if got := m.Count(); got != 0 {
		t.Fatalf("count=%d, want 0", got)
	}
	if !m.Wait(nil) {
		t.Fatalf("Wait returned false for an empty registry")
	}
}

func TestGetReturnsHandleOrUnknown(t *testing.T) {
	m := NewManager()

	if _, err := m.Get("nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err=%v, want ErrUnknownSession", err)
	}

	warned := false
	un, err := m.Register("s1", Handle{Warn: func(code, message string) error {
		warned = true
		return nil
	}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer un()

	h, err := m.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := h.Warn("draining", "wrapping up"); err != nil || !warned {
		t.Fatalf("warn via handle: err=%v warned=%v", err, warned)
	}

	un()
	if _, err := m.Get("s1"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err=%v after unregister, want ErrUnknownSession", err)
	}
}

func TestEndRoutesToSession(t *testing.T) {
	m := NewManager()

	var gotReason string
	un, err := m.Register("s1", Handle{End: func(reason string) { gotReason = reason }})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer un()

	if err := m.End("s1", "operator_end"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if gotReason != "operator_end" {
		t.Fatalf("reason=%q, want operator_end", gotReason)
	}

	if err := m.End("nope", "x"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err=%v, want ErrUnknownSession", err)
	}
}

func TestDrainingRefusesNewSessions(t *testing.T) {
	m := NewManager()
	un, err := m.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer un()

	m.SetDraining()
	if _, err := m.Register("s2", Handle{}); !errors.Is(err, ErrDraining) {
		t.Fatalf("err=%v, want ErrDraining", err)
	}
	// Existing sessions are untouched.
	if got := m.Count(); got != 1 {
		t.Fatalf("count=%d, want 1", got)
	}
}

func TestWarnAllAndEndAll(t *testing.T) {
	m := NewManager()

	warned := 0
	ended := 0
	for _, id := range []string{"s1", "s2", "s3"} {
		un, err := m.Register(id, Handle{
			Warn: func(code, message string) error { warned++; return nil },
			End:  func(reason string) { ended++ },
		})
		if err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
		defer un()
	}

	if got := m.WarnAll("draining", "shutting down"); got != 3 {
		t.Fatalf("WarnAll=%d, want 3", got)
	}
	if warned != 3 {
		t.Fatalf("warned=%d, want 3", warned)
	}
	if got := m.EndAll("shutdown"); got != 3 {
		t.Fatalf("EndAll=%d, want 3", got)
	}
	if ended != 3 {
		t.Fatalf("ended=%d, want 3", ended)
	}
}

func TestWaitBlocksUntilEmpty(t *testing.T) {
	m := NewManager()
	un, err := m.Register("s1", Handle{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if m.Wait(ctx) {
		t.Fatalf("Wait returned true with a session still registered")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		un()
	}()
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if !m.Wait(ctx2) {
		t.Fatalf("Wait returned false after all sessions ended")
	}
}

package api

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_NoRetriesByDefault(t *testing.T) {
	s := NewStore("", 0, nil)

	calls := 0
	boom := errors.New("boom")
	err := s.Retry(context.Background(), func() error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call with maxRetries=0, got %d", calls)
	}
}

func TestRetry_ExhaustsConfiguredAttempts(t *testing.T) {
	s := NewStore("", 2, nil)

	calls := 0
	boom := errors.New("boom")
	err := s.Retry(context.Background(), func() error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// 1 initial call + 2 retries.
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	s := NewStore("", 5, nil)

	calls := 0
	err := s.Retry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_DelayReceivesAttemptNumbers(t *testing.T) {
	var attempts []int
	s := NewStore("", 3, func(attempt int) time.Duration {
		attempts = append(attempts, attempt)
		return 0
	})

	_ = s.Retry(context.Background(), func() error {
		return errors.New("always")
	})

	want := []int{1, 2, 3}
	if len(attempts) != len(want) {
		t.Fatalf("expected %v, got %v", want, attempts)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, attempts)
		}
	}
}

func TestRetry_CancelledContextStopsWaiting(t *testing.T) {
	s := NewStore("", 3, func(int) time.Duration { return time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := s.Retry(ctx, func() error {
		calls++
		return errors.New("flaky")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before the cancelled wait, got %d", calls)
	}
}

func TestStore_EventQueueIsFIFO(t *testing.T) {
	s := NewStore("", 0, nil)

	e1 := NewEvent("a", nil)
	e2 := NewEvent("b", nil)
	e3 := NewEvent("c", nil)
	s.Enqueue(e1, e2)
	s.Enqueue(e3)

	pending := s.PendingEvents()
	if len(pending) != 3 || pending[0].ID != e1.ID || pending[1].ID != e2.ID || pending[2].ID != e3.ID {
		t.Fatalf("unexpected queue order: %+v", pending)
	}

	taken := s.TakeAll()
	if len(taken) != 3 || taken[0].ID != e1.ID {
		t.Fatalf("TakeAll broke order: %+v", taken)
	}
	if got := s.PendingEvents(); len(got) != 0 {
		t.Fatalf("expected empty queue after TakeAll, got %+v", got)
	}
}

func TestStore_TakeMatchingPreservesRemainderOrder(t *testing.T) {
	s := NewStore("", 0, nil)

	a1 := NewEvent("a", nil)
	b1 := NewEvent("b", nil)
	a2 := NewEvent("a", nil)
	b2 := NewEvent("b", nil)
	s.Enqueue(a1, b1, a2, b2)

	taken := s.TakeMatching(func(ev Event) bool { return ev.Type == "a" })
	if len(taken) != 2 || taken[0].ID != a1.ID || taken[1].ID != a2.ID {
		t.Fatalf("unexpected taken events: %+v", taken)
	}

	rest := s.PendingEvents()
	if len(rest) != 2 || rest[0].ID != b1.ID || rest[1].ID != b2.ID {
		t.Fatalf("unexpected remainder: %+v", rest)
	}
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore("v1", 0, nil)
	s.SetCurrentState("one")
	s.Enqueue(NewEvent("a", nil))
	s.AppendHistory(HistoryEntry[string]{State: "one", Timestamp: time.Now()})

	snap := s.Snapshot()

	s.Enqueue(NewEvent("b", nil))
	s.AppendHistory(HistoryEntry[string]{State: "two", Timestamp: time.Now()})
	s.SetContext("v2")

	if len(snap.PendingEvents) != 1 {
		t.Fatalf("snapshot queue mutated: %+v", snap.PendingEvents)
	}
	if len(snap.History) != 1 {
		t.Fatalf("snapshot history mutated: %+v", snap.History)
	}
	if snap.Context != "v1" {
		t.Fatalf("snapshot context mutated: %v", snap.Context)
	}
}

func TestStore_RestoreReplacesStateWholesale(t *testing.T) {
	s := NewStore("old", 0, nil)
	s.SetCurrentState("one")
	s.Enqueue(NewEvent("stale", nil))
	s.SetScratchpad("stale-pad")

	ev := NewEvent("fresh", nil)
	s.Restore(AllState[string]{
		CurrentState:  "two",
		Context:       "new",
		PendingEvents: []Event{ev},
	})

	if s.CurrentState() != "two" || s.Context() != "new" {
		t.Fatalf("restore incomplete: state=%s context=%s", s.CurrentState(), s.Context())
	}
	if s.Scratchpad() != nil {
		t.Fatalf("expected scratchpad replaced, got %v", s.Scratchpad())
	}
	if got := s.PendingEvents(); len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("unexpected queue after restore: %+v", got)
	}
}

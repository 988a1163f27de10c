package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJoinAllPreservesInputOrder(t *testing.T) {
	futs := []*Future[string]{
		Resolved("ok"),
		Resolved("fine"),
	}

	got, err := JoinAll(context.Background(), futs)
	if err != nil {
		t.Fatalf("JoinAll returned error: %v", err)
	}
	want := []string{"ok", "fine"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: expected %q, got %q", i, v, got[i])
		}
	}
}

func TestJoinAllOrderIndependentOfCompletion(t *testing.T) {
	// The first future completes last; output must still follow input order.
	slow := Go(func() (int, error) {
		time.Sleep(30 * time.Millisecond)
		return 1, nil
	})
	fast := Go(func() (int, error) { return 2, nil })

	got, err := JoinAll(context.Background(), []*Future[int]{slow, fast})
	if err != nil {
		t.Fatalf("JoinAll returned error: %v", err)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestJoinAllFailsFast(t *testing.T) {
	boom := errors.New("boom")
	third := Resolved(3)
	futs := []*Future[int]{
		Resolved(1),
		Failed[int](boom),
		third,
	}

	_, err := JoinAll(context.Background(), futs)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}

	// The future past the failing index must be untouched and still awaitable.
	v, err := third.Await(context.Background())
	if err != nil {
		t.Fatalf("expected third future unconsumed, got error: %v", err)
	}
	if v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestJoinAllEmpty(t *testing.T) {
	got, err := JoinAll[int](context.Background(), nil)
	if err != nil {
		t.Fatalf("JoinAll(nil) returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestAwaitTwice(t *testing.T) {
	f := Resolved("once")
	if _, err := f.Await(context.Background()); err != nil {
		t.Fatalf("first Await failed: %v", err)
	}
	_, err := f.Await(context.Background())
	if !errors.Is(err, ErrAlreadyAwaited) {
		t.Fatalf("expected ErrAlreadyAwaited, got %v", err)
	}
}

func TestAwaitRespectsContext(t *testing.T) {
	f := Go(func() (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

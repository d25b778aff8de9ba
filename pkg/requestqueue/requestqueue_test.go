package requestqueue

import (
	"context"
	"testing"
	"time"
)

func TestPushPopFIFO(t *testing.T) {
	q := New()
	q.Push("a", 1)
	q.Push("b", 2)

	id, payload, _, ok := q.Pop()
	if !ok || id != "a" || payload != 1 {
		t.Fatalf("expected a/1 first, got %v/%v ok=%v", id, payload, ok)
	}
	id, payload, _, ok = q.Pop()
	if !ok || id != "b" || payload != 2 {
		t.Fatalf("expected b/2 second, got %v/%v ok=%v", id, payload, ok)
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	result := make(chan string, 1)
	go func() {
		id, _, _, _ := q.Pop()
		result <- id
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("x", nil)

	select {
	case id := <-result:
		if id != "x" {
			t.Fatalf("expected x, got %v", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Push")
	}
}

func TestCancelPendingResolvesEmpty(t *testing.T) {
	q := New()
	future := q.Push("a", "payload")

	q.Cancel([]string{"a"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, ok := future.Wait(ctx)
	if !ok || value != nil {
		t.Fatalf("expected future to resolve to nil, got %v ok=%v", value, ok)
	}

	// The cancelled item must not still be in the queue.
	if _, _, _, ok := tryPop(q); ok {
		t.Fatal("expected cancelled item to be removed from the queue")
	}
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	q := New()
	q.Push("a", 1)
	q.Cancel([]string{"does-not-exist"})

	id, _, _, ok := q.Pop()
	if !ok || id != "a" {
		t.Fatal("expected unrelated cancel to leave the queue untouched")
	}
}

func TestInFlightCancelResolvesEmptyViaIsCancelled(t *testing.T) {
	q := New()
	future := q.Push("a", "payload")

	id, _, f, ok := q.Pop()
	if !ok || id != "a" {
		t.Fatal("expected to pop the request")
	}

	q.Cancel([]string{"a"})

	if !q.IsCancelled("a") {
		t.Fatal("expected worker to observe the in-flight cancellation")
	}
	f.Resolve(nil)
	q.ClearCancelled("a")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, ok := future.Wait(ctx)
	if !ok || value != nil {
		t.Fatalf("expected empty resolution, got %v ok=%v", value, ok)
	}
}

func TestCloseUnblocksPop(t *testing.T) {
	q := New()
	result := make(chan bool, 1)
	go func() {
		_, _, _, ok := q.Pop()
		result <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("expected Pop to return ok=false after Close with nothing queued")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Close")
	}
}

func TestFutureResolvesOnlyOnce(t *testing.T) {
	f := NewFuture()
	f.Resolve("first")
	f.Resolve("second")

	value, ok := f.Poll()
	if !ok || value != "first" {
		t.Fatalf("expected first resolution to stick, got %v", value)
	}
}

func tryPop(q *Queue) (string, any, *Future, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", nil, nil, false
	}
	it := q.items[0]
	return it.id, it.payload, it.future, true
}

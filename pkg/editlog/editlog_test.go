package editlog

import (
	"context"
	"errors"
	"testing"

	"github.com/Avalanche-io/gotio"
)

type fakeMutator struct {
	applyCalls int
	lastOps    []MoveData
	err        error
}

func (f *fakeMutator) Apply(_ context.Context, doc *gotio.Timeline, ops []MoveData) (*gotio.Timeline, error) {
	f.applyCalls++
	f.lastOps = ops
	if f.err != nil {
		return nil, f.err
	}
	return doc, nil
}

func TestPushAccumulatesPending(t *testing.T) {
	l := New()
	l.Push(MoveData{Type: ItemClip, FromTrack: 0, FromIndex: 1, ToTrack: 0, ToIndex: 0})
	l.Push(MoveData{Type: ItemClip, FromTrack: 1, FromIndex: 1, ToTrack: 1, ToIndex: 0})

	pending := l.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending ops, got %d", len(pending))
	}
}

func TestCommitDeliversBatchAndClears(t *testing.T) {
	l := New()
	l.Push(MoveData{Type: ItemUndoOnly})
	l.Push(MoveData{Type: ItemClip, FromTrack: 0, FromIndex: 1, ToTrack: 0, ToIndex: 0})

	m := &fakeMutator{}
	if _, err := l.Commit(context.Background(), nil, m); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if m.applyCalls != 1 {
		t.Fatalf("expected Apply called once, got %d", m.applyCalls)
	}
	if len(m.lastOps) != 2 {
		t.Fatalf("expected the whole gesture's batch delivered at once, got %d ops", len(m.lastOps))
	}
	if len(l.Pending()) != 0 {
		t.Fatal("expected pending cleared after Commit")
	}
}

func TestCommitWithNoPendingOpsIsNoop(t *testing.T) {
	l := New()
	m := &fakeMutator{}
	doc, err := l.Commit(context.Background(), nil, m)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected the unchanged (nil) doc back, got %v", doc)
	}
	if m.applyCalls != 0 {
		t.Fatal("expected Apply not called for an empty batch")
	}
}

func TestCommitPropagatesMutatorError(t *testing.T) {
	l := New()
	l.Push(MoveData{Type: ItemClip})
	m := &fakeMutator{err: errors.New("boom")}

	if _, err := l.Commit(context.Background(), nil, m); err == nil {
		t.Fatal("expected mutator error to propagate")
	}
	// A failed commit does not re-queue the batch; the caller decides
	// whether to retry.
	if len(l.Pending()) != 0 {
		t.Fatal("expected pending cleared even on mutator error")
	}
}

func TestDiscardClearsWithoutCommitting(t *testing.T) {
	l := New()
	l.Push(MoveData{Type: ItemClip})
	l.Discard()

	m := &fakeMutator{}
	if _, err := l.Commit(context.Background(), nil, m); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if m.applyCalls != 0 {
		t.Fatal("expected discarded ops to never reach the mutator")
	}
}

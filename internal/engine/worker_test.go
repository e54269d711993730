package engine

import (
	"context"
	"testing"
	"time"
)

func TestWorker_SubmitAndReceive(t *testing.T) {
	_, _, identities := twoClusterIdentities()
	e := New(Options{Dim: 4})
	e.Load(identities)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(e, 4)
	w.Start(ctx)

	id, ok := w.Submit(Detection{Embedding: Embedding{1, 0, 0, 0}})
	if !ok {
		t.Fatal("expected submit to succeed")
	}
	if id == "" {
		t.Fatal("expected a generated detection ID")
	}

	select {
	case ev := <-w.Results():
		if ev.ID != id {
			t.Errorf("result ID %q does not match submitted %q", ev.ID, id)
		}
		if !ev.Result.Matched || ev.Result.Roll != "A" {
			t.Errorf("expected match for A, got %+v", ev.Result)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for recognition event")
	}
}

func TestWorker_PreservesCallerID(t *testing.T) {
	e := New(Options{Dim: 4})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(e, 4)
	w.Start(ctx)

	id, ok := w.Submit(Detection{ID: "frame-7-face-0", Embedding: Embedding{1, 0, 0, 0}})
	if !ok || id != "frame-7-face-0" {
		t.Fatalf("expected caller ID preserved, got %q (ok=%v)", id, ok)
	}
}

func TestWorker_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	e := New(Options{Dim: 4})
	w := NewWorker(e, 1) // never started, queue fills immediately

	if _, ok := w.Submit(Detection{Embedding: Embedding{1, 0, 0, 0}}); !ok {
		t.Fatal("first submit should fit the queue")
	}
	if _, ok := w.Submit(Detection{Embedding: Embedding{1, 0, 0, 0}}); ok {
		t.Error("second submit should be dropped, not block")
	}
}

func TestWorker_StopsOnCancel(t *testing.T) {
	e := New(Options{Dim: 4})
	ctx, cancel := context.WithCancel(context.Background())

	w := NewWorker(e, 4)
	w.Start(ctx)
	cancel()
	w.Wait()

	if _, open := <-w.Results(); open {
		t.Error("results channel should be closed after cancellation")
	}
}

package discovery

import (
	"context"
	"testing"
	"time"
)

func TestWorkerStopsOnStopAction(t *testing.T) {
	spool := NewMemorySpool()
	w := NewWorker(1, spool, ProbeOptions{}, "1.0", "21700")

	items := make([]AddressItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, AddressItem{IP: "10.0.0.1"})
	}
	w.Fill(items)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Slot.setAction(ActionRun)
	time.Sleep(20 * time.Millisecond)
	w.Slot.setAction(ActionStop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop in time")
	}

	if w.Slot.GetState() != StateStop {
		t.Fatalf("expected StateStop, got %s", w.Slot.GetState())
	}
}

func TestWorkerPopDrainsInLIFOOrder(t *testing.T) {
	b := &block{}
	b.fill([]AddressItem{{IP: "a"}, {IP: "b"}, {IP: "c"}})

	first, ok := b.pop()
	if !ok || first.IP != "c" {
		t.Fatalf("expected c first, got %+v ok=%v", first, ok)
	}
	second, ok := b.pop()
	if !ok || second.IP != "b" {
		t.Fatalf("expected b second, got %+v ok=%v", second, ok)
	}
}

func TestWorkerSlotDefaultsToPaused(t *testing.T) {
	spool := NewMemorySpool()
	w := NewWorker(1, spool, ProbeOptions{}, "1.0", "21700")
	if w.Slot.GetState() != StatePause {
		t.Fatalf("expected fresh worker to start paused, got %s", w.Slot.GetState())
	}
}

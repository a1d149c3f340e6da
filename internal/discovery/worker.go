package discovery

import (
	"context"
	"sync"
	"time"

	"neoagent/internal/pkg/logger"
)

// pausePollInterval bounds how often a paused Worker rechecks its Action,
// avoiding a tight busy-spin while idle between block cycles.
const pausePollInterval = 50 * time.Millisecond

// WorkerSlot is the cooperative handshake between the Coordinator and one
// Worker. Action is written by the Coordinator, and by the Worker only to
// return it to PAUSE once its block is drained; State is written only by the
// Worker. Both fields are read and written behind mu so readers observe a
// consistent pair.
type WorkerSlot struct {
	mu     sync.Mutex
	Action WorkerAction
	State  WorkerState
}

func (s *WorkerSlot) setAction(a WorkerAction) {
	s.mu.Lock()
	s.Action = a
	s.mu.Unlock()
}

func (s *WorkerSlot) getAction() WorkerAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Action
}

func (s *WorkerSlot) setState(st WorkerState) {
	s.mu.Lock()
	s.State = st
	s.mu.Unlock()
}

// GetState reports the worker's last-published state. Safe for concurrent use.
func (s *WorkerSlot) GetState() WorkerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// block is the stack-like shared work queue a single Worker pops addresses
// from. The Coordinator refills it under lock between block cycles.
type block struct {
	mu    sync.Mutex
	items []AddressItem
}

func (b *block) fill(items []AddressItem) {
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
}

func (b *block) pop() (AddressItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return AddressItem{}, false
	}
	last := len(b.items) - 1
	item := b.items[last]
	b.items = b.items[:last]
	return item, true
}

// Worker drains addresses from its block, probes each, and flushes accepted
// Devices to the Spool in bounded Batches as described by the discovery
// contract's worker/coordinator handshake.
type Worker struct {
	ID     int
	Slot   *WorkerSlot
	block  *block
	spool  Spool
	probe  ProbeOptions
	moduleVersion string
	processNumber string
}

// NewWorker builds a Worker bound to its own WorkerSlot and shared block.
func NewWorker(id int, spool Spool, probe ProbeOptions, moduleVersion, processNumber string) *Worker {
	return &Worker{
		ID:            id,
		Slot:          &WorkerSlot{Action: ActionPause, State: StatePause},
		block:         &block{},
		spool:         spool,
		probe:         probe,
		moduleVersion: moduleVersion,
		processNumber: processNumber,
	}
}

// Fill hands the Worker its next block of addresses to process. Must only be
// called by the Coordinator while the Worker is paused.
func (w *Worker) Fill(items []AddressItem) {
	w.block.fill(items)
}

// Run is the Worker's main loop: it blocks on Action transitions, processing
// its current block whenever Action is RUN, and returns when Action becomes
// STOP or DELETE with its block drained.
func (w *Worker) Run(ctx context.Context) {
	batch := &Batch{ModuleVersion: w.moduleVersion, ProcessNumber: w.processNumber}

	for {
		switch w.Slot.getAction() {
		case ActionPause:
			w.Slot.setState(StatePause)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pausePollInterval):
			}
			continue

		case ActionStop, ActionDelete:
			w.flush(batch)
			w.Slot.setState(StateStop)
			return

		case ActionRun:
			w.Slot.setState(StateRun)
			item, ok := w.block.pop()
			if !ok {
				// Block exhausted: flush whatever is pending and wait for the
				// Coordinator to refill or stop us.
				w.flush(batch)
				w.Slot.setAction(ActionPause)
				continue
			}

			device := Probe(ctx, item, w.probe)
			if device.Accepted() {
				batch.Devices = append(batch.Devices, device)
				if batch.Full() {
					w.flush(batch)
				}
			}
		}

		select {
		case <-ctx.Done():
			w.flush(batch)
			w.Slot.setState(StateStop)
			return
		default:
		}
	}
}

func (w *Worker) flush(batch *Batch) {
	if len(batch.Devices) == 0 {
		return
	}
	payload, err := encodeBatch(*batch)
	if err != nil {
		logger.Errorf("worker %d: encode batch: %v", w.ID, err)
		batch.Devices = batch.Devices[:0]
		return
	}
	idx, err := w.spool.Next()
	if err != nil {
		logger.Errorf("worker %d: reserve spool index: %v", w.ID, err)
		batch.Devices = batch.Devices[:0]
		return
	}
	if err := w.spool.Save(idx, payload); err != nil {
		logger.Errorf("worker %d: save batch at index %d: %v", w.ID, idx, err)
	}
	batch.Devices = batch.Devices[:0]
}

package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinatorRunSendsStartNBIPAndEnd(t *testing.T) {
	var starts, nbips, ends int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var env envelope
		if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
			t.Errorf("decode envelope: %v", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		var start startMessage
		if err := json.Unmarshal(env.Content, &start); err == nil && start.Agent.Start == "1" {
			atomic.AddInt32(&starts, 1)
		}
		var nbip nbIPMessage
		if err := json.Unmarshal(env.Content, &nbip); err == nil && nbip.Agent.NBIP != 0 {
			atomic.AddInt32(&nbips, 1)
		}
		var end endMessage
		if err := json.Unmarshal(env.Content, &end); err == nil && end.Agent.End == "1" {
			atomic.AddInt32(&ends, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	opts := CoordinatorOptions{
		Job: JobOptions{
			ThreadsDiscovery: 2,
			Ranges:           []Range{{Start: "10.0.0.1", End: "10.0.0.3", Entity: "e"}},
		},
		Spool:    NewMemorySpool(),
		Reporter: NewReporter(srv.URL, time.Second),
	}

	c := NewCoordinator(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if atomic.LoadInt32(&starts) == 0 {
		t.Error("expected a START message")
	}
	if atomic.LoadInt32(&nbips) == 0 {
		t.Error("expected at least one NBIP message")
	}
	if atomic.LoadInt32(&ends) == 0 {
		t.Error("expected an END message")
	}
}

// TestCoordinatorRunWithEmptyRangesStillSendsEnd verifies the S1 scenario
// from SPEC_FULL.md: no ranges means the outbound sequence is exactly
// START, END — no NBIP and no device batches, since the block-cycle loop
// that sends NBIP never runs when there are no addresses to split.
func TestCoordinatorRunWithEmptyRangesStillSendsEnd(t *testing.T) {
	var total, starts, nbips, ends int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&total, 1)
		var env envelope
		if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
			t.Errorf("decode envelope: %v", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		var start startMessage
		if err := json.Unmarshal(env.Content, &start); err == nil && start.Agent.Start == "1" {
			atomic.AddInt32(&starts, 1)
		}
		var nbip nbIPMessage
		if err := json.Unmarshal(env.Content, &nbip); err == nil && nbip.Agent.NBIP != 0 {
			atomic.AddInt32(&nbips, 1)
		}
		var end endMessage
		if err := json.Unmarshal(env.Content, &end); err == nil && end.Agent.End == "1" {
			atomic.AddInt32(&ends, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	opts := CoordinatorOptions{
		Job:      JobOptions{ThreadsDiscovery: 1},
		Spool:    NewMemorySpool(),
		Reporter: NewReporter(srv.URL, time.Second),
	}
	c := NewCoordinator(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := atomic.LoadInt32(&total); got != 2 {
		t.Fatalf("expected exactly 2 messages (START, END), got %d", got)
	}
	if atomic.LoadInt32(&starts) != 1 {
		t.Errorf("expected exactly one START message, got %d", starts)
	}
	if atomic.LoadInt32(&nbips) != 0 {
		t.Errorf("expected no NBIP message for an empty job, got %d", nbips)
	}
	if atomic.LoadInt32(&ends) != 1 {
		t.Errorf("expected exactly one END message, got %d", ends)
	}
}

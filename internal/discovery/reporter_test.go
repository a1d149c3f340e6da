package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"context"
)

func TestReporterWrapsMessagesInEnvelope(t *testing.T) {
	var received envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, time.Second)
	r.SendStart(context.Background(), "21700", "1.0")

	if received.Query != queryNetDiscovery {
		t.Fatalf("expected QUERY=%s, got %s", queryNetDiscovery, received.Query)
	}
	var start startMessage
	if err := json.Unmarshal(received.Content, &start); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if start.ProcessNumber != "21700" {
		t.Fatalf("got process number %s", start.ProcessNumber)
	}
	if start.Agent.Start != "1" || start.Agent.AgentVersion != "1.0" {
		t.Fatalf("expected nested AGENT.START/AGENTVERSION, got %+v", start.Agent)
	}
	if start.ModuleVersion != "1.0" {
		t.Fatalf("expected MODULEVERSION to be set, got %q", start.ModuleVersion)
	}
}

func TestReporterSendDicoRefreshShape(t *testing.T) {
	var received envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, time.Second)
	r.SendDicoRefresh(context.Background(), "21700", "1.0")

	var refresh dicoRefreshMessage
	if err := json.Unmarshal(received.Content, &refresh); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if refresh.Agent.End != "1" || refresh.Dico != "REQUEST" {
		t.Fatalf("expected AGENT.END=1 and DICO=REQUEST, got %+v", refresh)
	}
	if refresh.ModuleVersion != "1.0" || refresh.ProcessNumber != "21700" {
		t.Fatalf("got %+v", refresh)
	}
}

func TestReporterSendFailureDoesNotPanic(t *testing.T) {
	r := NewReporter("http://127.0.0.1:0", 100*time.Millisecond)
	r.SendEnd(context.Background(), "21700", "1.0")
}

func TestEncodeBatchRoundTrips(t *testing.T) {
	batch := Batch{Devices: []Device{{IP: "10.0.0.1", MAC: "aa:bb:cc:dd:ee:ff"}}, ModuleVersion: "1.0", ProcessNumber: "21700"}
	payload, err := encodeBatch(batch)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var got Batch
	if err := json.Unmarshal(env.Content, &got); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(got.Devices) != 1 || got.Devices[0].IP != "10.0.0.1" {
		t.Fatalf("got %+v", got)
	}
}

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"neoagent/internal/pkg/logger"
)

// envelope is the outer shape every outbound message to the inventory
// server is wrapped in.
type envelope struct {
	Query   string          `json:"QUERY"`
	Content json.RawMessage `json:"CONTENT"`
}

const queryNetDiscovery = "NETDISCOVERY"

// agentStart is the AGENT sub-object of a Start message.
type agentStart struct {
	Start        string `json:"START"`
	AgentVersion string `json:"AGENTVERSION"`
}

// agentNBIP is the AGENT sub-object of a block-announce message.
type agentNBIP struct {
	NBIP int `json:"NBIP"`
}

// agentEnd is the AGENT sub-object of an End or Dictionary-refresh message.
type agentEnd struct {
	End string `json:"END"`
}

// startMessage and the message types below are the content shapes sent under
// a NETDISCOVERY envelope over the course of one job.
type startMessage struct {
	Agent         agentStart `json:"AGENT"`
	ModuleVersion string     `json:"MODULEVERSION"`
	ProcessNumber string     `json:"PROCESSNUMBER"`
}

type nbIPMessage struct {
	Agent         agentNBIP `json:"AGENT"`
	ProcessNumber string    `json:"PROCESSNUMBER"`
}

type dicoRefreshMessage struct {
	Agent         agentEnd `json:"AGENT"`
	ModuleVersion string   `json:"MODULEVERSION"`
	ProcessNumber string   `json:"PROCESSNUMBER"`
	Dico          string   `json:"DICO"`
}

type endMessage struct {
	Agent         agentEnd `json:"AGENT"`
	ModuleVersion string   `json:"MODULEVERSION"`
	ProcessNumber string   `json:"PROCESSNUMBER"`
}

func encodeBatch(b Batch) ([]byte, error) {
	return wrap(b)
}

func wrap(content any) ([]byte, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	env := envelope{Query: queryNetDiscovery, Content: raw}
	return json.Marshal(env)
}

// Reporter delivers discovery messages to the inventory server over HTTP.
// Outbound-send failures are logged and dropped: the discovery contract
// gives the agent no retry or backpressure channel back to the server.
type Reporter struct {
	endpoint   string
	httpClient *http.Client
}

// NewReporter builds a Reporter posting to endpoint with the given per-call timeout.
func NewReporter(endpoint string, timeout time.Duration) *Reporter {
	return &Reporter{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}
}

func (r *Reporter) send(ctx context.Context, content any) {
	payload, err := wrap(content)
	if err != nil {
		logger.Errorf("reporter: encode message: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.Errorf("reporter: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		logger.Warnf("reporter: send to %s: %v", r.endpoint, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Warnf("reporter: %s responded %s", r.endpoint, resp.Status)
	}
}

// SendStart announces the beginning of a discovery pass.
func (r *Reporter) SendStart(ctx context.Context, processNumber, moduleVersion string) {
	r.send(ctx, startMessage{
		Agent:         agentStart{Start: "1", AgentVersion: moduleVersion},
		ModuleVersion: moduleVersion,
		ProcessNumber: processNumber,
	})
}

// SendNBIP reports how many addresses the current block cycle will scan. The
// Coordinator sends one per block cycle, and none for a job with no addresses.
func (r *Reporter) SendNBIP(ctx context.Context, processNumber string, count int) {
	r.send(ctx, nbIPMessage{Agent: agentNBIP{NBIP: count}, ProcessNumber: processNumber})
}

// SendBatch delivers one bounded group of accepted Devices.
func (r *Reporter) SendBatch(ctx context.Context, batch Batch) {
	r.send(ctx, batch)
}

// SendDicoRefresh asks the server to resend its dictionary because the
// locally resolved copy's hash disagreed with the expected one.
func (r *Reporter) SendDicoRefresh(ctx context.Context, processNumber, moduleVersion string) {
	r.send(ctx, dicoRefreshMessage{
		Agent:         agentEnd{End: "1"},
		ModuleVersion: moduleVersion,
		ProcessNumber: processNumber,
		Dico:          "REQUEST",
	})
}

// SendEnd announces completion of a discovery pass.
func (r *Reporter) SendEnd(ctx context.Context, processNumber, moduleVersion string) {
	r.send(ctx, endMessage{
		Agent:         agentEnd{End: "1"},
		ModuleVersion: moduleVersion,
		ProcessNumber: processNumber,
	})
}

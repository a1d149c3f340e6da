package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"neoagent/internal/pkg/logger"
	"neoagent/internal/pkg/version"
)

// CoordinatorOptions configures a single discovery pass.
type CoordinatorOptions struct {
	Job               JobOptions
	Spool             Spool
	Reporter          *Reporter
	Refiners          []Refiner
	NmapBinaryVersion string
	NetbiosTimeout    time.Duration
	SNMPTimeout       time.Duration

	// StartupThrottleEvery pauses worker startup every N workers created, to
	// avoid a startup burst saturating the local network stack. 0 disables it.
	StartupThrottleEvery int
	StartupThrottleDelay time.Duration
}

// Coordinator drives one discovery pass end to end: resolving the
// Dictionary, expanding addresses, spinning up Workers, feeding them blocks,
// draining the Spool into Batches, and reporting progress to the server.
type Coordinator struct {
	opts    CoordinatorOptions
	workers []*Worker
}

// NewCoordinator builds a Coordinator for one pass. Call Run to execute it.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	return &Coordinator{opts: opts}
}

// Run executes the full discovery pass described by the discovery contract:
// dictionary resolution, capability detection, address expansion, worker
// creation and feeding, draining, and the START/(NBIP/DEVICE)*/END reporting
// sequence — one NBIP per block cycle, carrying that cycle's own spliced
// block size, sent only while addresses remain. It returns once every
// address has been probed and drained.
func (c *Coordinator) Run(ctx context.Context) error {
	processNumber := ProcessNumber(time.Now())
	moduleVersion := version.GetVersion()

	dict, refused, err := ResolveDictionary(c.opts.Spool, c.opts.Job.Dico, c.opts.Job.DicoHash)
	if err != nil {
		return fmt.Errorf("coordinator: resolve dictionary: %w", err)
	}
	if refused {
		logger.Warn("coordinator: resolved dictionary hash disagrees with expected hash, requesting refresh")
		c.opts.Reporter.SendDicoRefresh(ctx, processNumber, moduleVersion)
		return nil
	}

	addresses := ExpandRanges(c.opts.Job.Ranges)
	logger.Infof("coordinator: expanded %d ranges into %d addresses", len(c.opts.Job.Ranges), len(addresses))

	c.opts.Reporter.SendStart(ctx, processNumber, moduleVersion)

	if len(addresses) == 0 {
		c.opts.Reporter.SendEnd(ctx, processNumber, moduleVersion)
		return nil
	}

	threads := c.opts.Job.ThreadsDiscovery
	if threads <= 0 {
		threads = 1
	}

	var nmapLimiter *AdaptiveLimiter
	if c.opts.Job.NmapEnabled {
		nmapLimiter = NewAdaptiveLimiter(threads, 1, threads*2)
	}

	probeOpts := ProbeOptions{
		NmapEnabled:       c.opts.Job.NmapEnabled,
		NetbiosEnabled:    c.opts.Job.NetbiosEnabled,
		SNMPEnabled:       c.opts.Job.SNMPEnabled,
		NmapBinaryVersion: c.opts.NmapBinaryVersion,
		Credentials:       c.opts.Job.Credentials,
		Dictionary:        dict,
		Refiners:          c.opts.Refiners,
		NetbiosTimeout:    c.opts.NetbiosTimeout,
		SNMPTimeout:       c.opts.SNMPTimeout,
		NmapLimiter:       nmapLimiter,
	}

	c.workers = make([]*Worker, threads)
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < threads; i++ {
		w := NewWorker(i, c.opts.Spool, probeOpts, moduleVersion, processNumber)
		c.workers[i] = w
		go w.Run(workerCtx)

		if c.opts.StartupThrottleEvery > 0 && (i+1)%c.opts.StartupThrottleEvery == 0 && i+1 < threads {
			time.Sleep(c.opts.StartupThrottleDelay)
		}
	}

	blockSize := threads * AddressPerThread
	for offset := 0; offset < len(addresses); offset += blockSize {
		end := offset + blockSize
		if end > len(addresses) {
			end = len(addresses)
		}
		c.opts.Reporter.SendNBIP(ctx, processNumber, end-offset)
		c.feedBlock(addresses[offset:end])
		c.drainAndReport(ctx, processNumber, moduleVersion)
		if err := c.opts.Spool.ResetCycle(); err != nil {
			return fmt.Errorf("coordinator: reset spool cycle: %w", err)
		}
	}

	for _, w := range c.workers {
		w.Slot.setAction(ActionStop)
	}
	c.waitForStop()
	c.drainAndReport(ctx, processNumber, moduleVersion)

	c.opts.Reporter.SendEnd(ctx, processNumber, moduleVersion)
	return nil
}

// feedBlock distributes addresses across workers in round-robin order and
// transitions them from PAUSE to RUN.
func (c *Coordinator) feedBlock(addresses []AddressItem) {
	perWorker := make([][]AddressItem, len(c.workers))
	for i, addr := range addresses {
		w := i % len(c.workers)
		perWorker[w] = append(perWorker[w], addr)
	}
	for i, w := range c.workers {
		w.Fill(perWorker[i])
		w.Slot.setAction(ActionRun)
	}
	c.waitForPause()
}

// waitForPause blocks until every worker has reported it drained its
// current block and returned to PAUSE.
func (c *Coordinator) waitForPause() {
	for {
		allPaused := true
		for _, w := range c.workers {
			if w.Slot.getAction() != ActionPause || w.Slot.GetState() != StatePause {
				allPaused = false
				break
			}
		}
		if allPaused {
			return
		}
		time.Sleep(pausePollInterval)
	}
}

func (c *Coordinator) waitForStop() {
	for {
		allStopped := true
		for _, w := range c.workers {
			if w.Slot.GetState() != StateStop {
				allStopped = false
				break
			}
		}
		if allStopped {
			return
		}
		time.Sleep(pausePollInterval)
	}
}

// drainAndReport sequentially drains every completed Batch the Spool holds
// and reports each to the server in order.
func (c *Coordinator) drainAndReport(ctx context.Context, processNumber, moduleVersion string) {
	err := DrainSequential(c.opts.Spool, func(key int64, payload []byte) error {
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return fmt.Errorf("unmarshal envelope: %w", err)
		}
		var batch Batch
		if err := json.Unmarshal(env.Content, &batch); err != nil {
			return fmt.Errorf("unmarshal batch: %w", err)
		}
		c.opts.Reporter.SendBatch(ctx, batch)
		return nil
	})
	if err != nil {
		logger.Errorf("coordinator: drain spool: %v", err)
	}
}

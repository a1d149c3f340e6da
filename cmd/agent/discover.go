package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"neoagent/internal/config"
	"neoagent/internal/discovery"
	"neoagent/internal/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	discoverRanges      []string
	discoverEntity      string
	discoverCommunities []string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "run one network discovery pass",
	Long: `discover expands the given address ranges, probes every address with
nmap/NetBIOS/SNMP as enabled in config, and reports accepted devices to the
configured inventory server.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverRanges, "range", "r", nil, "inclusive IPv4 range \"start-end\", repeatable")
	discoverCmd.Flags().StringVar(&discoverEntity, "entity", "default", "entity tag applied to every range on this run")
	discoverCmd.Flags().StringSliceVar(&discoverCommunities, "community", []string{"public"}, "SNMP v2c community strings to try, in order")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ranges, err := parseRanges(discoverRanges, discoverEntity)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		return fmt.Errorf("at least one --range is required")
	}

	job := discovery.JobOptions{
		ThreadsDiscovery: cfg.Discovery.ThreadsDiscovery,
		Ranges:           ranges,
		Credentials:      buildCredentials(discoverCommunities),
		NmapEnabled:      cfg.Discovery.NmapEnabled,
		NetbiosEnabled:   cfg.Discovery.NetbiosEnabled,
		SNMPEnabled:      cfg.Discovery.SNMPEnabled,
	}

	spool := discovery.NewSpool(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	reporter := discovery.NewReporter(cfg.Reporter.Endpoint, cfg.Reporter.Timeout)

	coordinator := discovery.NewCoordinator(discovery.CoordinatorOptions{
		Job:                  job,
		Spool:                spool,
		Reporter:             reporter,
		NmapBinaryVersion:    cfg.Discovery.NmapBinaryVersion,
		NetbiosTimeout:       cfg.Discovery.NetbiosTimeout,
		SNMPTimeout:          cfg.Discovery.SNMPTimeout,
		StartupThrottleEvery: cfg.Discovery.StartupThrottleEvery,
		StartupThrottleDelay: cfg.Discovery.StartupThrottleDelay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("discover: interrupted, stopping current pass")
		cancel()
	}()

	if err := coordinator.Run(ctx); err != nil {
		return fmt.Errorf("discovery pass failed: %w", err)
	}

	logger.Info("discover: pass complete")
	return nil
}

// parseRanges turns "start-end" flag values into discovery.Range entries,
// all tagged with the same entity.
func parseRanges(raw []string, entity string) ([]discovery.Range, error) {
	ranges := make([]discovery.Range, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, "-", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid range %q, expected \"start-end\"", r)
		}
		ranges = append(ranges, discovery.Range{
			Start:  strings.TrimSpace(parts[0]),
			End:    strings.TrimSpace(parts[1]),
			Entity: entity,
		})
	}
	return ranges, nil
}

// buildCredentials wraps a list of community strings into v2c Credentials,
// tried against every address in the order given.
func buildCredentials(communities []string) []discovery.Credential {
	creds := make([]discovery.Credential, 0, len(communities))
	for i, community := range communities {
		if community == "" {
			continue
		}
		creds = append(creds, discovery.Credential{
			ID:        fmt.Sprintf("community-%d", i),
			Version:   discovery.SNMPv2c,
			Community: community,
		})
	}
	return creds
}

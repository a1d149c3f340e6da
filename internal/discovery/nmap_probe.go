package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/hashicorp/go-version"

	"neoagent/internal/pkg/logger"
)

// nmapVersionThreshold is the minimum nmap release that supports -PP
// alongside -sP; older binaries fall back to a plain ping sweep.
var nmapVersionThreshold = version.Must(version.NewVersion("5.30"))

// NmapResult carries the attributes the Probe Pipeline extracts from a single
// nmap run against one address.
type NmapResult struct {
	MAC      string
	Vendor   string
	Hostname string
	Up       bool
}

// nmapProbeTimeout bounds how long a single nmap invocation may run before the
// Probe Pipeline gives up and treats the probe as absent.
const nmapProbeTimeout = 15 * time.Second

// RunNmap invokes nmap against target via the library scanner and extracts
// the first MAC/vendor and hostname from its result. Argument selection
// follows nmapBinaryVersion: versions at or above nmapVersionThreshold add
// -PP to the ping sweep, older ones omit it.
func RunNmap(ctx context.Context, target string, nmapBinaryVersion string) (NmapResult, error) {
	ctx, cancel := context.WithTimeout(ctx, nmapProbeTimeout)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(target),
		nmap.WithCustomArguments(nmapArgsFor(nmapBinaryVersion)...),
	)
	if err != nil {
		return NmapResult{}, fmt.Errorf("nmap: build scanner for %s: %w", target, err)
	}

	run, warnings, err := scanner.Run()
	if err != nil {
		return NmapResult{}, fmt.Errorf("nmap: run against %s: %w", target, err)
	}
	if warnings != nil && len(*warnings) > 0 {
		logger.Debugf("nmap: warnings for %s: %v", target, *warnings)
	}

	return nmapResultFromRun(run), nil
}

// nmapArgsFor builds the argument list per the discovery contract's
// version-gated nmap argument selection. -sP/-PP/--system-dns/--max-retries/
// --max-rtt-timeout are the only flags the contract specifies; -oX is added
// by the scanner itself.
func nmapArgsFor(binaryVersion string) []string {
	v, err := version.NewVersion(binaryVersion)
	if err != nil {
		logger.Debugf("nmap: unparseable version %q, assuming below threshold: %v", binaryVersion, err)
		return []string{"-sP", "--system-dns", "--max-retries", "1", "--max-rtt-timeout", "1000"}
	}
	if v.GreaterThanOrEqual(nmapVersionThreshold) {
		return []string{"-sP", "-PP", "--system-dns", "--max-retries", "1", "--max-rtt-timeout", "1000ms"}
	}
	return []string{"-sP", "--system-dns", "--max-retries", "1", "--max-rtt-timeout", "1000"}
}

func nmapResultFromRun(run *nmap.Run) NmapResult {
	if run == nil || len(run.Hosts) == 0 {
		return NmapResult{}
	}
	host := run.Hosts[0]

	result := NmapResult{Up: host.Status.State == "up"}
	for _, a := range host.Addresses {
		if a.AddrType == "mac" && result.MAC == "" {
			result.MAC = strings.ToLower(a.Addr)
			result.Vendor = a.Vendor
		}
	}
	if len(host.Hostnames) > 0 {
		result.Hostname = host.Hostnames[0].Name
	}
	return result
}

package discovery

import (
	"context"
	"net"
	"strings"
	"time"
)

// ProbeOptions configures which probes the pipeline runs and how they are
// parameterized for a single address.
type ProbeOptions struct {
	NmapEnabled    bool
	NetbiosEnabled bool
	SNMPEnabled    bool

	NmapBinaryVersion string
	Credentials       []Credential
	Dictionary        *Dictionary
	Refiners          []Refiner

	NetbiosTimeout time.Duration
	SNMPTimeout    time.Duration

	// NmapLimiter, when set, bounds how many nmap subprocesses may run
	// concurrently across all Workers sharing it. Nil disables limiting.
	NmapLimiter *AdaptiveLimiter
}

// Probe runs the nmap, NetBIOS and SNMP probes against item in that order
// and fuses their results into a single Device, per the fixed precedence:
// nmap supplies MAC/vendor/hostname first, NetBIOS may fill in name/workgroup/
// session and override MAC if nmap found none, SNMP supplies the richest
// identification and never overrides a MAC already found. Rejects silently
// (returning an unaccepted, empty Device) if item.IP is empty or not a
// canonical IPv4 dotted-quad.
func Probe(ctx context.Context, item AddressItem, opts ProbeOptions) Device {
	if !isCanonicalIPv4(item.IP) {
		return Device{}
	}

	device := Device{IP: item.IP, Entity: item.Entity}

	if opts.NmapEnabled {
		if res, err := runNmapStage(ctx, item.IP, opts); err == nil {
			if res.MAC != "" {
				device.MAC = res.MAC
				device.NetportVendor = res.Vendor
			}
			if res.Hostname != "" {
				device.DNSHostname = res.Hostname
			}
		}
	}

	if opts.NetbiosEnabled {
		if res, err := QueryNetBIOS(item.IP, nonZero(opts.NetbiosTimeout, 2*time.Second)); err == nil {
			if device.MAC == "" && res.MAC != "" {
				device.MAC = res.MAC
			}
			device.NetbiosName = res.NetbiosName
			device.Workgroup = res.Workgroup
			device.UserSession = res.UserSession
		}
	}

	if opts.SNMPEnabled && opts.Dictionary != nil {
		if res, ok := ClassifySNMP(item.IP, opts.Credentials, opts.Dictionary, opts.Refiners, nonZero(opts.SNMPTimeout, 3*time.Second)); ok {
			device.Description = res.Description
			device.SNMPHostname = res.SNMPHostname
			device.Serial = res.Serial
			device.ModelSNMP = res.ModelSNMP
			device.Type = res.Type
			device.AuthSNMP = res.AuthSNMP
			if device.MAC == "" && res.MAC != "" {
				device.MAC = res.MAC
			}
		}
	}

	device.MAC = strings.ToLower(device.MAC)
	return device
}

func nonZero(d, fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}
	return d
}

// isCanonicalIPv4 reports whether ip is a non-empty, canonical IPv4
// dotted-quad (round-trips through net.ParseIP/To4/String unchanged).
func isCanonicalIPv4(ip string) bool {
	if ip == "" {
		return false
	}
	parsed := net.ParseIP(ip).To4()
	return parsed != nil && parsed.String() == ip
}

// runNmapStage runs the nmap probe, optionally bounded by opts.NmapLimiter
// so that many Workers sharing one limiter do not all spawn nmap at once.
func runNmapStage(ctx context.Context, ip string, opts ProbeOptions) (NmapResult, error) {
	if opts.NmapLimiter == nil {
		return RunNmap(ctx, ip, opts.NmapBinaryVersion)
	}
	if err := opts.NmapLimiter.Acquire(ctx); err != nil {
		return NmapResult{}, err
	}
	defer opts.NmapLimiter.Release()

	res, err := RunNmap(ctx, ip, opts.NmapBinaryVersion)
	if err != nil {
		opts.NmapLimiter.OnFailure()
	} else {
		opts.NmapLimiter.OnSuccess()
	}
	return res, err
}

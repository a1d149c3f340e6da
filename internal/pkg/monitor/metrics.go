// Package monitor reports the host's static capabilities and live resource
// usage, surfaced through the local status API, and offers RecommendedThreads
// to bound a configured worker-pool size.
package monitor

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"neoagent/internal/pkg/logger"
)

// HostInfo describes static facts about the host the agent is running on.
type HostInfo struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Arch            string
	CPUCores        int
	MemoryTotal     uint64
	DiskTotal       uint64
}

// SystemMetrics is a point-in-time sample of host resource usage.
type SystemMetrics struct {
	CPUUsage         float64
	MemoryUsage      float64
	DiskUsage        float64
	NetworkBytesSent int64
	NetworkBytesRecv int64
}

// GetSystemMetrics samples current CPU/memory/disk/network usage. Individual
// sampler failures are logged and leave the corresponding field zeroed rather
// than failing the whole call.
func GetSystemMetrics() (*SystemMetrics, error) {
	metrics := &SystemMetrics{}

	// A short sampling window; good enough for a periodic status snapshot.
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemMetrics", "failed to get CPU usage: "+err.Error(), logger.WarnLevel, nil)
	} else if len(cpuPercent) > 0 {
		metrics.CPUUsage = cpuPercent[0]
	}

	vMem, err := mem.VirtualMemory()
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemMetrics", "failed to get memory usage: "+err.Error(), logger.WarnLevel, nil)
	} else {
		metrics.MemoryUsage = vMem.UsedPercent
	}

	diskPath := "/"
	dUsage, err := disk.Usage(diskPath)
	if err != nil {
		// Windows hosts: "/" maps oddly on some gopsutil versions, fall back to C:.
		dUsage, err = disk.Usage("C:")
	}
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemMetrics", "failed to get disk usage: "+err.Error(), logger.WarnLevel, nil)
	} else {
		metrics.DiskUsage = dUsage.UsedPercent
	}

	netIO, err := net.IOCounters(false)
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemMetrics", "failed to get network stats: "+err.Error(), logger.WarnLevel, nil)
	} else if len(netIO) > 0 {
		metrics.NetworkBytesSent = int64(netIO[0].BytesSent)
		metrics.NetworkBytesRecv = int64(netIO[0].BytesRecv)
	}

	return metrics, nil
}

// GetHostInfo collects static host facts, falling back to runtime.GOOS /
// runtime.NumCPU when a gopsutil sampler is unavailable (e.g. unsupported
// platform, missing permissions).
func GetHostInfo() (*HostInfo, error) {
	info := &HostInfo{}

	hInfo, err := host.Info()
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetHostInfo", "failed to get host info: "+err.Error(), logger.WarnLevel, nil)
	} else {
		info.Hostname = hInfo.Hostname
		info.OS = hInfo.OS
		info.Platform = hInfo.Platform
		info.PlatformVersion = hInfo.PlatformVersion
		info.KernelVersion = hInfo.KernelVersion
		info.Arch = hInfo.KernelArch
	}

	if info.OS == "" {
		info.OS = runtime.GOOS
	}
	if info.Arch == "" {
		info.Arch = runtime.GOARCH
	}

	cpuInfo, err := cpu.Info()
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetHostInfo", "failed to get CPU info: "+err.Error(), logger.WarnLevel, nil)
		info.CPUCores = runtime.NumCPU()
	} else if len(cpuInfo) > 0 {
		cores := 0
		for _, c := range cpuInfo {
			cores += int(c.Cores)
		}
		if cores == 0 {
			cores = runtime.NumCPU()
		}
		info.CPUCores = cores
	} else {
		info.CPUCores = runtime.NumCPU()
	}

	vMem, err := mem.VirtualMemory()
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetHostInfo", "failed to get memory info: "+err.Error(), logger.WarnLevel, nil)
	} else {
		info.MemoryTotal = vMem.Total
	}

	dUsage, err := disk.Usage("/")
	if err != nil {
		dUsage, err = disk.Usage("C:")
	}
	if err != nil {
		logger.LogSystemEvent("Monitor", "GetHostInfo", "failed to get disk info: "+err.Error(), logger.WarnLevel, nil)
	} else {
		info.DiskTotal = dUsage.Total
	}

	return info, nil
}

// RecommendedThreads caps a configured worker-thread count at four times the
// host's CPU core count, so an over-large discovery.threads_discovery setting
// doesn't oversubscribe a small host. A zero or negative count becomes 1.
func RecommendedThreads(configured int) int {
	if configured <= 0 {
		configured = 1
	}
	cores := runtime.NumCPU()
	if cores <= 0 {
		cores = 1
	}
	if configured > cores*4 {
		return cores * 4
	}
	return configured
}

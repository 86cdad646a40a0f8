// Package health reports process-level resource usage alongside the Index
// Engine's own tick status, for the daemon's status surface.
package health

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time read of host resource usage.
type Snapshot struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
	UptimeSec  float64 `json:"uptime_seconds"`
}

// Monitor tracks process uptime and samples CPU/memory on demand.
type Monitor struct {
	startedAt time.Time
}

// NewMonitor starts a monitor with uptime measured from the call time.
func NewMonitor() *Monitor {
	return &Monitor{startedAt: time.Now()}
}

// Sample reads current CPU and memory usage over a short window. A 100ms
// sampling window keeps a status request fast without blocking the caller
// on a full one-second measurement.
func (m *Monitor) Sample() Snapshot {
	var cpuPct float64
	if pcts, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pcts) > 0 {
		cpuPct = pcts[0]
	}

	var memPct float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPct = vm.UsedPercent
	}

	return Snapshot{
		CPUPercent: cpuPct,
		MemPercent: memPct,
		UptimeSec:  time.Since(m.startedAt).Seconds(),
	}
}

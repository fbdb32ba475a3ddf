package router

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/thermalab/thermal-ar-go/internal/pipeline"
)

// buildStats aggregates the pipeline counters of every device stream and
// samples host load. Host sampling failures leave the fields at zero, stats
// never fail.
func (r *Router) buildStats() StatsReport {
	var agg pipeline.Stats
	for _, d := range r.hub.Devices() {
		if p := d.Pipeline(); p != nil {
			agg.Merge(p.Stats())
		}
	}

	devices, viewers := r.hub.Counts()
	report := StatsReport{
		Type:             TypeStats,
		Stats:            agg,
		DevicesConnected: devices,
		ViewersConnected: viewers,
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		report.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.MemoryPercent = vm.UsedPercent
	}
	return report
}

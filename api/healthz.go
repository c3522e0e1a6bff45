/*
healthz.go - GET /healthz. CPU/memory numbers lean on
github.com/shirou/gopsutil/v3, the same package and the same
100ms-sample-for-a-fast-response approach aristath-sentinel's
system_handlers.go uses for its STATS display mode.
*/
package api

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthzResponse struct {
	Status          string  `json:"status"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemUsedPercent  float64 `json:"mem_used_percent"`
	SchedulerRan    bool    `json:"scheduler_ran_today"`
	SchedulerLastRun string `json:"scheduler_last_run,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		cpuPercent = []float64{0}
	}
	memStat, err := mem.VirtualMemory()
	memUsed := 0.0
	if err == nil {
		memUsed = memStat.UsedPercent
	}

	resp := HealthzResponse{
		Status:         "healthy",
		UptimeSeconds:  time.Since(h.StartedAt).Seconds(),
		CPUPercent:     cpuPercent[0],
		MemUsedPercent: memUsed,
	}
	if h.LastRunInfo != nil {
		if at, ok := h.LastRunInfo(); ok {
			resp.SchedulerRan = isSameDay(at, time.Now())
			resp.SchedulerLastRun = at.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func isSameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

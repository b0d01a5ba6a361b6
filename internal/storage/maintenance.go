package storage

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultGCSchedule runs value-log GC every five minutes.
const DefaultGCSchedule = "@every 5m"

// Collector is a store that can reclaim disk space.
type Collector interface {
	RunGC() (int, error)
}

// Maintenance runs periodic GC against a store on a cron schedule.
type Maintenance struct {
	sched  *cron.Cron
	store  Collector
	logger *slog.Logger
}

// NewMaintenance registers the GC job. It does not start it.
func NewMaintenance(store Collector, schedule string, logger *slog.Logger) (*Maintenance, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultGCSchedule
	}
	m := &Maintenance{sched: cron.New(), store: store, logger: logger}
	if _, err := m.sched.AddFunc(schedule, m.RunOnce); err != nil {
		return nil, fmt.Errorf("maintenance: invalid schedule %q: %w", schedule, err)
	}
	return m, nil
}

// RunOnce performs a single GC pass and logs the result.
func (m *Maintenance) RunOnce() {
	rounds, err := m.store.RunGC()
	if err != nil {
		m.logger.Warn("store gc failed", "error", err)
		return
	}
	if rounds > 0 {
		m.logger.Debug("store gc reclaimed value log files", "rounds", rounds)
	}
}

// Start begins the schedule in its own goroutine.
func (m *Maintenance) Start() {
	m.sched.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (m *Maintenance) Stop() {
	<-m.sched.Stop().Done()
}

/*
scheduler.go - Scheduled reload of configured source files

PURPOSE:
  Re-reads the billing and payroll exports on a cron schedule so the served
  bundle follows the files without anyone calling /api/loads/reload.

DESIGN:
  - robfig/cron drives the schedule (standard 5-field specs and descriptors
    such as "@every 15m" or "@hourly")
  - Each tick goes through Handler.Reload, so scheduled and HTTP-triggered
    loads serialize on the same lock
  - A failed reload is logged and the previous bundle stays published
  - cron.SkipIfStillRunning drops a tick that overlaps a slow reload

USAGE:
  scheduler, err := NewReloadScheduler(handler, "@every 15m", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reload, ReloadSources endpoint
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReloadScheduler reloads source files on a schedule.
type ReloadScheduler struct {
	Handler  *Handler
	Schedule string

	cron    *cron.Cron
	entryID cron.EntryID
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
}

// NewReloadScheduler validates the schedule and prepares a scheduler.
func NewReloadScheduler(h *Handler, schedule string, logger *zap.Logger) (*ReloadScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &ReloadScheduler{
		Handler:  h,
		Schedule: schedule,
		logger:   logger.Named("scheduler"),
	}
	rs.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	id, err := rs.cron.AddFunc(schedule, rs.RunNow)
	if err != nil {
		return nil, eris.Wrapf(err, "reload schedule %q", schedule)
	}
	rs.entryID = id
	return rs, nil
}

// Start begins the scheduler.
func (rs *ReloadScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.running {
		return
	}
	rs.cron.Start()
	rs.running = true
	rs.logger.Info("started", zap.String("schedule", rs.Schedule))
}

// Stop stops the scheduler and waits for a running reload to finish.
func (rs *ReloadScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.running {
		return
	}
	<-rs.cron.Stop().Done()
	rs.running = false
	rs.logger.Info("stopped")
}

// RunNow performs one reload immediately.
func (rs *ReloadScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c, err := rs.Handler.Reload(ctx)
	if err != nil {
		rs.logger.Error("reload failed, keeping previous bundle", zap.Error(err))
		return
	}
	rs.logger.Info("reloaded", zap.String("cycle_id", c.ID))
}

// NextRunTime returns when the next scheduled reload will occur.
func (rs *ReloadScheduler) NextRunTime() time.Time {
	return rs.cron.Entry(rs.entryID).Next
}

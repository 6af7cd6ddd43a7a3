// Package jobs contains the scheduled jobs of the reports service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/application/sheetsync"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC SHEETS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SyncSheetsJobName is the name the job registers under.
const SyncSheetsJobName = "sync_sheets"

// ErrAllSheetsFailed is returned when no sheet could be synced in a run.
var ErrAllSheetsFailed = errors.New("every sheet failed to sync")

// Syncer runs one sync pass over every sheet.
type Syncer interface {
	SyncAll(ctx context.Context) []sheetsync.Result
}

// SyncStats summarises one run of the job.
type SyncStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Total       int
	Changed     []sheet.Name
	Failed      []sheet.Name
	Rows        int
}

// SyncSheetsJob keeps the local cache warm by syncing every sheet on a
// schedule, so page loads rarely wait on a cold cache.
type SyncSheetsJob struct {
	syncer Syncer
	logger *slog.Logger
	now    func() time.Time

	lastStats atomic.Pointer[SyncStats]
}

// NewSyncSheetsJob creates the job.
func NewSyncSheetsJob(syncer Syncer, logger *slog.Logger) *SyncSheetsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncSheetsJob{
		syncer: syncer,
		logger: logger.With("job", SyncSheetsJobName),
		now:    time.Now,
	}
}

// Name returns the unique name of the job.
func (j *SyncSheetsJob) Name() string {
	return SyncSheetsJobName
}

// Description returns a human-readable description of the job.
func (j *SyncSheetsJob) Description() string {
	return "Synchronizes every sheet with the remote workbook"
}

// Run executes one pass. Partial failures are logged; the run fails only
// when no sheet could be synced or the context ended first.
func (j *SyncSheetsJob) Run(ctx context.Context) error {
	stats := &SyncStats{StartedAt: j.now()}

	results := j.syncer.SyncAll(ctx)

	stats.Total = len(results)
	for _, r := range results {
		stats.Rows += len(r.Rows)
		if r.Failed() {
			stats.Failed = append(stats.Failed, r.Sheet)
			j.logger.Warn("sheet sync failed", "sheet", r.Sheet, "error", r.Err)
			continue
		}
		if r.HasChanges {
			stats.Changed = append(stats.Changed, r.Sheet)
		}
	}
	stats.CompletedAt = j.now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)

	j.logger.Info("sheet sync pass finished",
		"sheets", stats.Total,
		"changed", len(stats.Changed),
		"failed", len(stats.Failed),
		"rows", stats.Rows,
		"duration", stats.Duration.String(),
	)

	if err := ctx.Err(); err != nil && stats.Total < len(sheet.All()) {
		return fmt.Errorf("sync interrupted after %d sheets: %w", stats.Total, err)
	}
	if stats.Total > 0 && len(stats.Failed) == stats.Total {
		return ErrAllSheetsFailed
	}
	return nil
}

// LastStats returns the statistics of the most recent run, or nil.
func (j *SyncSheetsJob) LastStats() *SyncStats {
	return j.lastStats.Load()
}

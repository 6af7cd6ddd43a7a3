// Package sheetsync keeps the local sheet cache in step with the remote
// spreadsheet and hands fresh rows to the aggregation engine.
//
// Key components:
//   - DeltaClient: one incremental sync of one sheet
//   - Orchestrator: page loads, manual refreshes and form submissions
package sheetsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// Result is the outcome of syncing one sheet.
type Result struct {
	Sheet sheet.Name

	// Rows is the merged collection, or the cached one when nothing changed
	// or the remote could not be reached.
	Rows []sheet.Row

	// HasChanges is set when the remote sent a snapshot or changed rows.
	HasChanges bool

	// Err describes why the remote could not be used. It is informational:
	// Rows is still valid.
	Err error
}

// Failed reports whether the remote could not be used.
func (r Result) Failed() bool {
	return r.Err != nil
}

// DeltaClient runs the incremental sync protocol for single sheets.
type DeltaClient struct {
	remote sheet.Remote
	store  sheet.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewDeltaClient creates a client syncing store from remote.
func NewDeltaClient(remote sheet.Remote, store sheet.Store, logger *slog.Logger) *DeltaClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaClient{
		remote: remote,
		store:  store,
		now:    time.Now,
		logger: logger.With(slog.String("component", "delta_sync")),
	}
}

// Sync fetches what changed in name since the stored marker, merges it into
// the cached rows and persists the result together with a new marker.
// It never fails: on a remote error the cached rows come back unchanged.
func (c *DeltaClient) Sync(ctx context.Context, name sheet.Name) Result {
	snap := c.store.Get(ctx, name)
	cached := snap.Rows
	if cached == nil {
		cached = []sheet.Row{}
	}

	requestedAt := c.now()
	delta, err := c.remote.Fetch(ctx, name, snap.Meta.LastSync)
	if err != nil {
		c.logger.Warn("sheet sync failed, serving cached rows",
			slog.String("sheet", name.String()),
			slog.Int("cached_rows", len(cached)),
			slog.String("error", err.Error()),
		)
		return Result{
			Sheet: name,
			Rows:  cached,
			Err:   shared.WrapError("sheet", "Fetch", shared.ErrServiceUnavailable, "remote sheet endpoint is unavailable", err),
		}
	}
	if !delta.HasChanges() {
		return Result{Sheet: name, Rows: cached}
	}

	rows := delta.Apply(name, cached)
	if status := c.store.Put(ctx, name, rows, requestedAt); status != sheet.StatusOK {
		c.logger.Warn("merged rows not persisted, marker unchanged",
			slog.String("sheet", name.String()),
			slog.String("status", status.String()),
		)
	}

	c.logger.Info("sheet synced",
		slog.String("sheet", name.String()),
		slog.Bool("full", delta.Full),
		slog.Int("changed", len(delta.Changed)),
		slog.Int("rows", len(rows)),
	)
	return Result{Sheet: name, Rows: rows, HasChanges: true}
}

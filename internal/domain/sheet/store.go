package sheet

import (
	"context"
	"time"
)

// Status tells the caller why a store read or write came back the way it
// did. Storage failures are reported here instead of as errors: the read
// path must keep serving stale or empty data.
type Status int

const (
	// StatusOK means the backend answered and data was found or written.
	StatusOK Status = iota
	// StatusMissing means the backend answered but holds nothing for the sheet.
	StatusMissing
	// StatusUnavailable means the backend failed; the result is a degraded
	// empty read or a skipped write.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Meta is the per-sheet metadata record kept next to the rows.
type Meta struct {
	// LastSync is the marker sent to the remote on the next delta request.
	// Zero means the sheet has never been synced.
	LastSync time.Time `json:"last_sync"`

	// Version increases by one on every successful Put.
	Version int64 `json:"version"`

	// Checksum of the stored rows (see Checksum).
	Checksum string `json:"checksum"`

	// RowCount is the number of stored rows.
	RowCount int `json:"row_count"`

	// UpdatedAt is when the rows were last replaced.
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is the stored state of one sheet.
type Snapshot struct {
	Name   Name   `json:"name"`
	Rows   []Row  `json:"rows"`
	Meta   Meta   `json:"meta"`
	Status Status `json:"-"`
}

// Store is the durable per-sheet cache.
//
// Get never fails: an unknown sheet yields StatusMissing and a backend
// failure yields StatusUnavailable, both with no rows.
//
// Put replaces the sheet's whole collection. A non-zero syncedAt also
// advances Meta.LastSync in the same write. A failing backend turns Put into
// a logged no-op reported as StatusUnavailable.
type Store interface {
	Get(ctx context.Context, name Name) Snapshot
	Put(ctx context.Context, name Name, rows []Row, syncedAt time.Time) Status
}

// NextMeta computes the metadata record that a Put of rows at now produces,
// given the previous record.
func NextMeta(prev Meta, rows []Row, syncedAt, now time.Time) Meta {
	next := Meta{
		LastSync:  prev.LastSync,
		Version:   prev.Version + 1,
		Checksum:  Checksum(rows),
		RowCount:  len(rows),
		UpdatedAt: now.UTC(),
	}
	if !syncedAt.IsZero() {
		next.LastSync = syncedAt.UTC()
	}
	return next
}

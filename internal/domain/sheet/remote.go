package sheet

import (
	"context"
	"time"
)

// Delta is one reply of the remote delta endpoint.
type Delta struct {
	// Full is set when the remote sent a complete snapshot in Rows.
	// The cached collection must then be replaced before Changed is merged.
	Full bool
	Rows []Row

	// Changed rows are merged by key on top of the (possibly replaced)
	// collection.
	Changed []Row
}

// HasChanges reports whether applying d can alter the cached collection.
func (d Delta) HasChanges() bool {
	return d.Full || len(d.Changed) > 0
}

// Apply returns the collection obtained by applying d to cached.
func (d Delta) Apply(name Name, cached []Row) []Row {
	base := cached
	if d.Full {
		base = d.Rows
	}
	return Merge(name, base, d.Changed)
}

// Remote is the spreadsheet-backed source of truth.
//
// Fetch asks for the rows changed since the marker; a zero marker asks for
// everything. Append writes one row; a non-2xx reply is an error.
type Remote interface {
	Fetch(ctx context.Context, name Name, since time.Time) (Delta, error)
	Append(ctx context.Context, name Name, row Row) error
}

package sheetsync

import (
	"context"
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
)

// Tag fingerprints what a page view is computed from: the engine's current
// day and the version and checksum of every sheet the page reads. The tag
// changes at midnight and whenever any of those sheets is rewritten with
// different content.
func (o *Orchestrator) Tag(ctx context.Context, page report.Page) (string, error) {
	names, err := SheetsFor(page)
	if err != nil {
		return "", err
	}

	h, _ := blake2b.New256(nil)
	h.Write([]byte(o.engine.Today()))
	h.Write([]byte{'\n'})
	for _, name := range readSet(names) {
		meta := o.store.Get(ctx, name).Meta
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(meta.Version, 10)))
		h.Write([]byte{0})
		h.Write([]byte(meta.Checksum))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:16]), nil
}

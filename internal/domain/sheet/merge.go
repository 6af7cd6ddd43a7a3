package sheet

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Merge applies a delta to a cached collection. Each changed row replaces the
// cached row with the same identity key in place, or is appended when the key
// is new. Rows are applied in order, so the last row for a key wins.
//
// Merge never mutates its inputs and is idempotent: merging the same delta
// twice yields the same collection as merging it once.
func Merge(name Name, cached, changed []Row) []Row {
	out := make([]Row, len(cached), len(cached)+len(changed))
	copy(out, cached)
	if len(changed) == 0 {
		return out
	}

	index := make(map[string]int, len(out))
	for i, row := range out {
		key := KeyFor(name, row)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	for _, row := range changed {
		key := KeyFor(name, row)
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

// Checksum is a BLAKE2b-256 digest of the rows' canonical JSON, hex encoded.
// Two collections with the same rows in the same order share a checksum.
func Checksum(rows []Row) string {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

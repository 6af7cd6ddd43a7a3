package sheets

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// deltaResponseDTO is the body of GET ?sheet=<name>[&lastSync=<iso>].
//
//	{"data": [...] | null, "changed": [...]}
//
// Data stays raw so an explicit null can be told apart from a full reply.
type deltaResponseDTO struct {
	Data    json.RawMessage `json:"data"`
	Changed []sheet.Row     `json:"changed"`
	Error   string          `json:"error,omitempty"`
}

func (d deltaResponseDTO) toDomain() (sheet.Delta, error) {
	delta := sheet.Delta{Changed: d.Changed}

	raw := bytes.TrimSpace(d.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return delta, nil
	}

	var rows []sheet.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return sheet.Delta{}, fmt.Errorf("decode data: %w", err)
	}
	if rows == nil {
		rows = []sheet.Row{}
	}
	delta.Full = true
	delta.Rows = rows
	return delta, nil
}

// appendResponseDTO is the optional body of a write reply.
type appendResponseDTO struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// APIError is a non-2xx reply from the sheets endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sheets api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("sheets api: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// Package workbook reads an exported .xlsx copy of the remote spreadsheet so
// that a fresh store can be seeded without a network round trip.
package workbook

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// Reader extracts sheet rows from workbooks.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("component", "workbook"))}
}

// ReadFile opens path and reads it with Read.
func (r *Reader) ReadFile(path string) (map[sheet.Name][]sheet.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return r.read(f)
}

// Read parses a workbook. Every worksheet named after a known sheet becomes
// a row collection: the first row holds the column labels and blank rows are
// skipped. Other worksheets are ignored.
func (r *Reader) Read(src io.Reader) (map[sheet.Name][]sheet.Row, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return r.read(f)
}

func (r *Reader) read(f *excelize.File) (map[sheet.Name][]sheet.Row, error) {
	out := make(map[sheet.Name][]sheet.Row)
	for _, title := range f.GetSheetList() {
		name, err := sheet.Parse(strings.TrimSpace(title))
		if err != nil {
			r.logger.Debug("worksheet ignored", slog.String("worksheet", title))
			continue
		}

		grid, err := f.GetRows(title)
		if err != nil {
			return nil, fmt.Errorf("read worksheet %s: %w", title, err)
		}
		rows := toRows(grid)
		out[name] = rows
		r.logger.Info("worksheet read", slog.String("sheet", name.String()), slog.Int("rows", len(rows)))
	}
	return out, nil
}

func toRows(grid [][]string) []sheet.Row {
	rows := []sheet.Row{}
	if len(grid) == 0 {
		return rows
	}
	header := grid[0]

	for _, record := range grid[1:] {
		if blank(record) {
			continue
		}
		fields := make([]sheet.Field, 0, len(header))
		for i, label := range header {
			if label == "" {
				continue
			}
			var cell string
			if i < len(record) {
				cell = record[i]
			}
			fields = append(fields, sheet.Field{Label: label, Value: cellValue(cell)})
		}
		rows = append(rows, sheet.NewRow(fields...))
	}
	return rows
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellValue keeps plain numbers numeric, the way the remote endpoint sends
// them. Anything with leading zeros or surrounding text stays a string.
func cellValue(cell string) any {
	if cell == "" || cell != strings.TrimSpace(cell) {
		return cell
	}
	if len(cell) > 1 && cell[0] == '0' && cell[1] != '.' {
		return cell
	}
	if _, err := strconv.ParseFloat(cell, 64); err != nil {
		return cell
	}
	if strings.ContainsAny(cell, "eEinfINFxX") {
		return cell
	}
	return json.Number(cell)
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/circuitbreaker"
	"github.com/halaqat-hub/halaqat-reports/pkg/retry"
)

// SheetStore is the durable sheet.Store. Every read and write goes through a
// circuit breaker and a short retry loop; whatever still fails is logged and
// reported as sheet.StatusUnavailable.
type SheetStore struct {
	conn    *Connection
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	logger  *slog.Logger
	now     func() time.Time
}

var _ sheet.Store = (*SheetStore)(nil)

// NewSheetStore creates a store on conn.
func NewSheetStore(conn *Connection, logger *slog.Logger) *SheetStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "sheet_store"))
	return &SheetStore{
		conn: conn,
		breaker: circuitbreaker.DatabaseBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}),
		retrier: retry.DatabaseRetrier(),
		logger:  logger,
		now:     time.Now,
	}
}

// errSheetMissing marks a Get of a sheet that has never been stored.
var errSheetMissing = errors.New("sheet not stored")

// Get implements sheet.Store.
func (s *SheetStore) Get(ctx context.Context, name sheet.Name) sheet.Snapshot {
	snap := sheet.Snapshot{Name: name, Rows: []sheet.Row{}}
	missing := false

	err := s.run(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
			meta, err := readMeta(ctx, tx, name, false)
			if errors.Is(err, errSheetMissing) {
				missing = true
				return nil
			}
			if err != nil {
				return err
			}
			missing = false
			rows, err := s.readRows(ctx, tx, name)
			if err != nil {
				return err
			}
			snap.Meta = meta
			snap.Rows = rows
			return nil
		})
	})

	switch {
	case err == nil && missing:
		snap.Status = sheet.StatusMissing
	case err == nil:
		snap.Status = sheet.StatusOK
	default:
		s.logger.Warn("sheet read failed, serving empty rows",
			slog.String("sheet", name.String()),
			slog.String("error", err.Error()),
		)
		snap.Status = sheet.StatusUnavailable
	}
	return snap
}

// Put implements sheet.Store.
func (s *SheetStore) Put(ctx context.Context, name sheet.Name, rows []sheet.Row, syncedAt time.Time) sheet.Status {
	payloads := make([][]any, 0, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			s.logger.Warn("sheet row not encodable, skipping",
				slog.String("sheet", name.String()),
				slog.Int("position", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		payloads = append(payloads, []any{name.String(), len(payloads), sheet.KeyFor(name, row), string(data)})
	}

	var version int64
	err := s.run(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			prev, err := readMeta(ctx, tx, name, true)
			if err != nil && !errors.Is(err, errSheetMissing) {
				return err
			}
			next := sheet.NextMeta(prev, rows, syncedAt, s.now())
			version = next.Version

			if err := upsertMeta(ctx, tx, name, next); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "DELETE FROM sheet_rows WHERE sheet = $1", name.String()); err != nil {
				return fmt.Errorf("delete rows: %w", err)
			}
			_, err = tx.CopyFrom(ctx,
				pgx.Identifier{"sheet_rows"},
				[]string{"sheet", "position", "row_key", "payload"},
				pgx.CopyFromRows(payloads),
			)
			if err != nil {
				return fmt.Errorf("copy rows: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Warn("sheet write failed, keeping previous rows",
			slog.String("sheet", name.String()),
			slog.Int("rows", len(rows)),
			slog.String("error", err.Error()),
		)
		return sheet.StatusUnavailable
	}

	s.logger.Debug("sheet stored",
		slog.String("sheet", name.String()),
		slog.Int("rows", len(payloads)),
		slog.Int64("version", version),
		slog.Bool("marker_advanced", !syncedAt.IsZero()),
	)
	return sheet.StatusOK
}

// Breaker exposes the store's breaker state for health reporting.
func (s *SheetStore) Breaker() circuitbreaker.State {
	return s.breaker.State()
}

func (s *SheetStore) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			err := fn(ctx)
			if err != nil && IsTransient(err) {
				return retry.Retryable(err)
			}
			return err
		})
	})
}

func readMeta(ctx context.Context, tx pgx.Tx, name sheet.Name, forUpdate bool) (sheet.Meta, error) {
	query := `
		SELECT last_sync, version, checksum, row_count, updated_at
		FROM sheet_meta
		WHERE sheet = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		meta     sheet.Meta
		lastSync *time.Time
	)
	err := tx.QueryRow(ctx, query, name.String()).Scan(
		&lastSync,
		&meta.Version,
		&meta.Checksum,
		&meta.RowCount,
		&meta.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return sheet.Meta{}, errSheetMissing
		}
		return sheet.Meta{}, fmt.Errorf("read meta: %w", err)
	}
	if lastSync != nil {
		meta.LastSync = lastSync.UTC()
	}
	meta.UpdatedAt = meta.UpdatedAt.UTC()
	return meta, nil
}

func upsertMeta(ctx context.Context, tx pgx.Tx, name sheet.Name, meta sheet.Meta) error {
	var lastSync *time.Time
	if !meta.LastSync.IsZero() {
		lastSync = &meta.LastSync
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO sheet_meta (sheet, last_sync, version, checksum, row_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sheet) DO UPDATE SET
			last_sync = EXCLUDED.last_sync,
			version = EXCLUDED.version,
			checksum = EXCLUDED.checksum,
			row_count = EXCLUDED.row_count,
			updated_at = EXCLUDED.updated_at`,
		name.String(), lastSync, meta.Version, meta.Checksum, meta.RowCount, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert meta: %w", err)
	}
	return nil
}

func (s *SheetStore) readRows(ctx context.Context, tx pgx.Tx, name sheet.Name) ([]sheet.Row, error) {
	rows, err := tx.Query(ctx,
		"SELECT position, payload FROM sheet_rows WHERE sheet = $1 ORDER BY position",
		name.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	defer rows.Close()

	out := []sheet.Row{}
	for rows.Next() {
		var (
			position int
			payload  string
		)
		if err := rows.Scan(&position, &payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var row sheet.Row
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			s.logger.Warn("stored row malformed, skipping",
				slog.String("sheet", name.String()),
				slog.Int("position", position),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

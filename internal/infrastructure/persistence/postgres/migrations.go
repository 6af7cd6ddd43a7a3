package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SHEET CACHE
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One record per cached sheet.
CREATE TABLE IF NOT EXISTS sheet_meta (
    sheet VARCHAR(64) PRIMARY KEY,
    last_sync TIMESTAMP WITH TIME ZONE,
    version BIGINT NOT NULL DEFAULT 0,
    checksum VARCHAR(128) NOT NULL DEFAULT '',
    row_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_version CHECK (version >= 0),
    CONSTRAINT valid_row_count CHECK (row_count >= 0)
);

-- Rows keep their sheet order through position. The payload is stored as
-- text so that column order survives the round trip.
CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet VARCHAR(64) NOT NULL REFERENCES sheet_meta(sheet) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    payload TEXT NOT NULL,

    PRIMARY KEY (sheet, position)
);
`

const migration001Down = `
DROP TABLE IF EXISTS sheet_rows;
DROP TABLE IF EXISTS sheet_meta;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ROW KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Existing rows get an empty key and are re-keyed on the next Put of their
// sheet.
const migration002Up = `
ALTER TABLE sheet_rows ADD COLUMN IF NOT EXISTS row_key TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_sheet_rows_sheet_key ON sheet_rows(sheet, row_key);
`

const migration002Down = `
DROP INDEX IF EXISTS idx_sheet_rows_sheet_key;
ALTER TABLE sheet_rows DROP COLUMN IF EXISTS row_key;
`

// Migrations returns all embedded migrations.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "sheet_cache", Up: migration001Up, Down: migration001Down},
		{Version: 2, Name: "sheet_row_keys", Up: migration002Up, Down: migration002Down},
	}
}

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"barstock/internal"
)

const lastGoodRunKey = "catalog.last_good_run"

type DB struct {
	conn *sql.DB
}

// Snapshot is a persisted catalog build.
type Snapshot struct {
	Run      internal.RunRecord
	Rows     []internal.NormalizedRow
	Headers  []internal.HeaderResolution
	Warnings []internal.ParseWarning
}

type RawBodyRow struct {
	ID          int
	Hash        string
	Source      string
	Tab         string
	ContentType string
	RawRef      string
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  status TEXT NOT NULL,
  rowCount INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  headersJson TEXT NOT NULL DEFAULT '[]',
  warningsJson TEXT NOT NULL DEFAULT '[]',
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_startedAt ON runs(startedAt);

CREATE TABLE IF NOT EXISTS catalog_rows (
  runId TEXT NOT NULL,
  id INTEGER NOT NULL,
  tab TEXT,
  sourceRow INTEGER NOT NULL,
  drinkName TEXT,
  valuesJson TEXT NOT NULL,
  rawPrice TEXT,
  rawUnit TEXT,
  PRIMARY KEY(runId, id),
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS raw_bodies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  hash TEXT NOT NULL,
  source TEXT NOT NULL,
  tab TEXT NOT NULL DEFAULT '',
  contentType TEXT,
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(source, tab, hash)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun records a refresh attempt that produced no snapshot.
func (d *DB) InsertRun(run internal.RunRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO runs (id, source, status, rowCount, error, startedAt, finishedAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status=excluded.status,
  rowCount=excluded.rowCount,
  error=excluded.error,
  finishedAt=excluded.finishedAt
`, run.ID, run.Source, string(run.Status), run.RowCount, run.Error, run.StartedAt, run.FinishedAt)
	return err
}

// SaveSnapshot stores a successful build and marks it as the last good one.
// Rows of older snapshots are dropped; their run records are kept.
func (d *DB) SaveSnapshot(snap Snapshot) error {
	headersJSON, err := json.Marshal(nonNil(snap.Headers))
	if err != nil {
		return err
	}
	warningsJSON, err := json.Marshal(nonNil(snap.Warnings))
	if err != nil {
		return err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	run := snap.Run
	if _, err := tx.Exec(`
INSERT INTO runs (id, source, status, rowCount, error, headersJson, warningsJson, startedAt, finishedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status=excluded.status,
  rowCount=excluded.rowCount,
  error=excluded.error,
  headersJson=excluded.headersJson,
  warningsJson=excluded.warningsJson,
  finishedAt=excluded.finishedAt
`, run.ID, run.Source, string(run.Status), len(snap.Rows), run.Error, string(headersJSON), string(warningsJSON), run.StartedAt, run.FinishedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM catalog_rows`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO catalog_rows (runId, id, tab, sourceRow, drinkName, valuesJson, rawPrice, rawUnit)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range snap.Rows {
		valuesJSON, err := json.Marshal(row.Values)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(run.ID, row.ID, row.Tab, row.SourceRow, row.Get(internal.FieldDrinkName), string(valuesJSON), row.RawPrice, row.RawUnit); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, lastGoodRunKey, run.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// LatestSnapshot returns the last good snapshot, or nil when none was saved.
func (d *DB) LatestSnapshot() (*Snapshot, error) {
	runID, err := d.GetMetadata(lastGoodRunKey)
	if err != nil || runID == nil {
		return nil, err
	}

	var snap Snapshot
	var headersJSON, warningsJSON string
	run, err := d.scanRun(d.conn.QueryRow(`
SELECT id, source, status, rowCount, error, startedAt, finishedAt, headersJson, warningsJson
FROM runs WHERE id = ?`, *runID), &headersJSON, &warningsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.Run = run
	if err := json.Unmarshal([]byte(headersJSON), &snap.Headers); err != nil {
		return nil, fmt.Errorf("run %s headers: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &snap.Warnings); err != nil {
		return nil, fmt.Errorf("run %s warnings: %w", run.ID, err)
	}

	rows, err := d.conn.Query(`
SELECT id, tab, sourceRow, valuesJson, rawPrice, rawUnit
FROM catalog_rows WHERE runId = ? ORDER BY id`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap.Rows = []internal.NormalizedRow{}
	for rows.Next() {
		var row internal.NormalizedRow
		var tab, rawPrice, rawUnit sql.NullString
		var valuesJSON string
		if err := rows.Scan(&row.ID, &tab, &row.SourceRow, &valuesJSON, &rawPrice, &rawUnit); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(valuesJSON), &row.Values); err != nil {
			return nil, fmt.Errorf("row %d values: %w", row.ID, err)
		}
		row.Tab, row.RawPrice, row.RawUnit = tab.String, rawPrice.String, rawUnit.String
		snap.Rows = append(snap.Rows, row)
	}

	return &snap, rows.Err()
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, source, status, rowCount, error, startedAt, finishedAt, headersJson, warningsJson
FROM runs ORDER BY startedAt DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var ignoredHeaders, ignoredWarnings string
		run, err := d.scanRun(rows, &ignoredHeaders, &ignoredWarnings)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id string) (*internal.RunRecord, error) {
	var h, w string
	run, err := d.scanRun(d.conn.QueryRow(`
SELECT id, source, status, rowCount, error, startedAt, finishedAt, headersJson, warningsJson
FROM runs WHERE id = ?`, id), &h, &w)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (d *DB) scanRun(s rowScanner, headersJSON, warningsJSON *string) (internal.RunRecord, error) {
	var run internal.RunRecord
	var status string
	var errText sql.NullString
	if err := s.Scan(&run.ID, &run.Source, &status, &run.RowCount, &errText, &run.StartedAt, &run.FinishedAt, headersJSON, warningsJSON); err != nil {
		return internal.RunRecord{}, err
	}
	run.Status = internal.RunStatus(status)
	run.Error = errText.String
	return run, nil
}

// UpsertRawBody records an archived payload; the same body fetched again only
// bumps lastSeenAt.
func (d *DB) UpsertRawBody(hash, source, tab, contentType, rawRef string) (RawBodyRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO raw_bodies (hash, source, tab, contentType, rawRef)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source, tab, hash) DO UPDATE SET
  contentType=excluded.contentType,
  rawRef=excluded.rawRef,
  lastSeenAt=CURRENT_TIMESTAMP
`, hash, source, tab, contentType, rawRef)
	if err != nil {
		return RawBodyRow{}, err
	}

	var row RawBodyRow
	var ct sql.NullString
	err = d.conn.QueryRow(`
SELECT id, hash, source, tab, contentType, rawRef
FROM raw_bodies WHERE source = ? AND tab = ? AND hash = ?`, source, tab, hash).Scan(
		&row.ID, &row.Hash, &row.Source, &row.Tab, &ct, &row.RawRef,
	)
	if err != nil {
		return RawBodyRow{}, err
	}
	row.ContentType = ct.String
	return row, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

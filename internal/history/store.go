// Package history persists coverage snapshots in a local sqlite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thecodereport/tcdr/domain"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Store is a sqlite-backed domain.HistoryStore
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

		CREATE TABLE IF NOT EXISTS snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			repo_name        TEXT NOT NULL DEFAULT '',
			branch           TEXT NOT NULL DEFAULT '',
			recorded_at_ms   INTEGER NOT NULL,
			line_pct         REAL,
			branch_pct       REAL,
			method_pct       REAL,
			full_method_pct  REAL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_repo_time ON snapshots(repo_name, recorded_at_ms);
	`)
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
		return err
	case err != nil:
		return err
	case version > schemaVersion:
		return fmt.Errorf("history database schema %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Record stores snap and returns its id
func (s *Store) Record(ctx context.Context, snap domain.Snapshot) (int64, error) {
	at := snap.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (repo_name, branch, recorded_at_ms, line_pct, branch_pct, method_pct, full_method_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.RepoName, snap.Branch, at.UnixMilli(),
		nullPercent(snap.LinePct), nullPercent(snap.BranchPct),
		nullPercent(snap.MethodPct), nullPercent(snap.FullMethodPct),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit latest snapshots of repo, oldest first.
// An empty repo matches every repository; limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, repo string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_name, branch, recorded_at_ms, line_pct, branch_pct, method_pct, full_method_pct
		FROM snapshots
		WHERE (? = '' OR repo_name = ?)
		ORDER BY recorded_at_ms DESC, id DESC
		LIMIT ?`, repo, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var (
			snap                       domain.Snapshot
			atMs                       int64
			line, branch, method, full sql.NullFloat64
		)
		if err := rows.Scan(&snap.ID, &snap.RepoName, &snap.Branch, &atMs, &line, &branch, &method, &full); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.RecordedAt = time.UnixMilli(atMs).UTC()
		snap.LinePct = percentFrom(line)
		snap.BranchPct = percentFrom(branch)
		snap.MethodPct = percentFrom(method)
		snap.FullMethodPct = percentFrom(full)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func nullPercent(p domain.Percent) sql.NullFloat64 {
	return sql.NullFloat64{Float64: p.Value, Valid: p.Valid}
}

func percentFrom(v sql.NullFloat64) domain.Percent {
	if !v.Valid {
		return domain.NotApplicable()
	}
	return domain.PercentValue(v.Float64)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/profile-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	org_name     TEXT NOT NULL DEFAULT '',
	input_mode   TEXT NOT NULL DEFAULT '',
	source_count INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	score        REAL NOT NULL DEFAULT 0,
	draft        TEXT,
	errors       TEXT,
	timings      TEXT,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_org_name ON runs(org_name);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run == nil {
		return eris.New("sqlite: nil run")
	}
	if run.ID == "" {
		return eris.New("sqlite: run id required")
	}

	var draftJSON sql.NullString
	if run.Draft != nil {
		b, err := json.Marshal(run.Draft)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal draft")
		}
		draftJSON = sql.NullString{String: string(b), Valid: true}
	}
	var errorsJSON sql.NullString
	if len(run.Errors) > 0 {
		b, err := json.Marshal(run.Errors)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal errors")
		}
		errorsJSON = sql.NullString{String: string(b), Valid: true}
	}
	var timingsJSON sql.NullString
	if len(run.Timings) > 0 {
		b, err := json.Marshal(run.Timings)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal timings")
		}
		timingsJSON = sql.NullString{String: string(b), Valid: true}
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.OrgName, string(run.InputMode), run.SourceCount, string(run.Status), run.Score,
		draftJSON, errorsJSON, timingsJSON, run.DurationMS, createdAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at
		 FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at
	 FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.OrgName != "" {
		query += ` AND org_name = ?`
		args = append(args, filter.OrgName)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var draftJSON, errorsJSON, timingsJSON sql.NullString

	err := row.Scan(&r.ID, &r.OrgName, &r.InputMode, &r.SourceCount, &r.Status, &r.Score,
		&draftJSON, &errorsJSON, &timingsJSON, &r.DurationMS, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if draftJSON.Valid {
		r.Draft = &model.ProfileDraft{}
		if err := json.Unmarshal([]byte(draftJSON.String), r.Draft); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal draft")
		}
	}
	if errorsJSON.Valid {
		if err := json.Unmarshal([]byte(errorsJSON.String), &r.Errors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal errors")
		}
	}
	if timingsJSON.Valid {
		if err := json.Unmarshal([]byte(timingsJSON.String), &r.Timings); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal timings")
		}
	}
	return &r, nil
}

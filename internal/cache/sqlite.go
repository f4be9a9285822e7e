package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/profile-cli/internal/model"
)

// SQLite is a Cache backed by a local SQLite database, so candidates
// survive across runs and processes.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidate_cache (
	key        TEXT PRIMARY KEY,
	candidate  TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidate_cache_expires_at ON candidate_cache(expires_at);
`

// NewSQLite opens the cache database at dsn, configures WAL mode, and
// creates the schema if missing. Entries live for ttl.
func NewSQLite(dsn string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}
	return &SQLite{db: db, ttl: ttl}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, key string) (*model.Candidate, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT candidate FROM candidate_cache
		 WHERE key = ? AND expires_at > datetime('now')`,
		key,
	)

	var candidateJSON string
	err := row.Scan(&candidateJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: get candidate")
	}

	var c model.Candidate
	if err := json.Unmarshal([]byte(candidateJSON), &c); err != nil {
		return nil, false, eris.Wrap(err, "cache: unmarshal candidate")
	}
	zap.L().Debug("cache: hit", zap.String("key", shortKey(key)))
	return &c, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, candidate *model.Candidate) error {
	if candidate == nil {
		return eris.New("cache: nil candidate")
	}
	candidateJSON, err := json.Marshal(candidate)
	if err != nil {
		return eris.Wrap(err, "cache: marshal candidate")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidate_cache (key, candidate, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			candidate  = excluded.candidate,
			cached_at  = excluded.cached_at,
			expires_at = excluded.expires_at`,
		key, string(candidateJSON), now, now.Add(s.ttl),
	)
	return eris.Wrap(err, "cache: put candidate")
}

// Purge deletes expired rows and reports how many were removed.
func (s *SQLite) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM candidate_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: rows affected")
}

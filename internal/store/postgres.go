package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/db"
	"github.com/sells-group/profile-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO runs (id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_run":    `SELECT id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	org_name     TEXT NOT NULL DEFAULT '',
	input_mode   TEXT NOT NULL DEFAULT '',
	source_count INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	draft        JSONB,
	errors       JSONB,
	timings      JSONB,
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_org_name ON runs(org_name);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run == nil {
		return eris.New("postgres: nil run")
	}
	if run.ID == "" {
		return eris.New("postgres: run id required")
	}

	var draftJSON, errorsJSON, timingsJSON []byte
	if run.Draft != nil {
		b, err := json.Marshal(run.Draft)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal draft")
		}
		draftJSON = b
	}
	if len(run.Errors) > 0 {
		b, err := json.Marshal(run.Errors)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal errors")
		}
		errorsJSON = b
	}
	if len(run.Timings) > 0 {
		b, err := json.Marshal(run.Timings)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal timings")
		}
		timingsJSON = b
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.OrgName, string(run.InputMode), run.SourceCount, string(run.Status), run.Score,
		draftJSON, errorsJSON, timingsJSON, run.DurationMS, createdAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var draftRaw, errorsRaw, timingsRaw *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.OrgName, &r.InputMode, &r.SourceCount, &r.Status, &r.Score,
		&draftRaw, &errorsRaw, &timingsRaw, &r.DurationMS, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := unmarshalRunColumns(&r, draftRaw, errorsRaw, timingsRaw); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, org_name, input_mode, source_count, status, score, draft, errors, timings, duration_ms, created_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.OrgName != "" {
		query += fmt.Sprintf(` AND org_name = $%d`, argIdx)
		args = append(args, filter.OrgName)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var draftRaw, errorsRaw, timingsRaw *[]byte

		if err := rows.Scan(&r.ID, &r.OrgName, &r.InputMode, &r.SourceCount, &r.Status, &r.Score,
			&draftRaw, &errorsRaw, &timingsRaw, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := unmarshalRunColumns(&r, draftRaw, errorsRaw, timingsRaw); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func unmarshalRunColumns(r *model.Run, draftRaw, errorsRaw, timingsRaw *[]byte) error {
	if draftRaw != nil {
		r.Draft = &model.ProfileDraft{}
		if err := json.Unmarshal(*draftRaw, r.Draft); err != nil {
			return eris.Wrap(err, "postgres: unmarshal draft")
		}
	}
	if errorsRaw != nil {
		if err := json.Unmarshal(*errorsRaw, &r.Errors); err != nil {
			return eris.Wrap(err, "postgres: unmarshal errors")
		}
	}
	if timingsRaw != nil {
		if err := json.Unmarshal(*timingsRaw, &r.Timings); err != nil {
			return eris.Wrap(err, "postgres: unmarshal timings")
		}
	}
	return nil
}

// internal/store/store.go
// Package store persists suite runs to PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/results"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store reads and writes runs.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// Connect opens a pool for url and wraps it in a Store. The returned func
// closes the pool.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    suite       TEXT NOT NULL,
    driver      TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS scenario_results (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    scenario_id TEXT NOT NULL,
    title       TEXT NOT NULL,
    tags        TEXT[] NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ns BIGINT NOT NULL,
    PRIMARY KEY (run_id, scenario_id)
);
CREATE TABLE IF NOT EXISTS action_records (
    run_id       TEXT NOT NULL,
    scenario_id  TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    recorded_at  TIMESTAMPTZ NOT NULL,
    level        TEXT NOT NULL,
    message      TEXT NOT NULL,
    action       TEXT NOT NULL,
    description  TEXT NOT NULL,
    attempt      INTEGER NOT NULL,
    max_attempts INTEGER NOT NULL,
    context      JSONB NOT NULL,
    error        TEXT NOT NULL,
    PRIMARY KEY (run_id, scenario_id, seq),
    FOREIGN KEY (run_id, scenario_id) REFERENCES scenario_results(run_id, scenario_id) ON DELETE CASCADE
);`

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const (
	sqlUpsertRun = `
        INSERT INTO runs (id, suite, driver, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            suite = EXCLUDED.suite,
            driver = EXCLUDED.driver,
            started_at = EXCLUDED.started_at,
            finished_at = EXCLUDED.finished_at;
    `
	sqlDeleteResults = `DELETE FROM scenario_results WHERE run_id = $1;`
	sqlInsertRecord  = `
        INSERT INTO action_records (run_id, scenario_id, seq, recorded_at, level, message, action, description, attempt, max_attempts, context, error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
    `
)

var resultColumns = []string{"run_id", "position", "scenario_id", "title", "tags", "status", "error", "started_at", "duration_ns"}

// SaveRun writes run and its results in one transaction. Saving a run ID
// again replaces its results.
func (s *Store) SaveRun(ctx context.Context, run *results.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertRun, run.ID, run.Suite, run.Driver, run.Started.UTC(), run.Finished.UTC()); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlDeleteResults, run.ID); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}
	if err := s.persistResults(ctx, tx, run); err != nil {
		return err
	}
	if err := s.persistRecords(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Run persisted", zap.String("run_id", run.ID), zap.Int("scenarios", len(run.Results)))
	return nil
}

func (s *Store) persistResults(ctx context.Context, tx pgx.Tx, run *results.Run) error {
	if len(run.Results) == 0 {
		return nil
	}
	rows := make([][]any, len(run.Results))
	for i, r := range run.Results {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		rows[i] = []any{run.ID, i, r.ID, r.Title, tags, string(r.Status), r.Error, r.Started.UTC(), int64(r.Duration)}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"scenario_results"}, resultColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy scenario results: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("mismatch in copied results count: expected %d, got %d", len(rows), n)
	}
	return nil
}

type recordRef struct {
	scenario string
	seq      int
}

func (s *Store) persistRecords(ctx context.Context, tx pgx.Tx, run *results.Run) error {
	batch := &pgx.Batch{}
	var refs []recordRef
	for _, r := range run.Results {
		for i, rec := range r.Records {
			contextJSON, err := encodeContext(rec.Context)
			if err != nil {
				return fmt.Errorf("failed to encode context of record %d for %s: %w", i, r.ID, err)
			}
			batch.Queue(sqlInsertRecord, run.ID, r.ID, i, rec.Time.UTC(), rec.Level, rec.Message,
				rec.Action, rec.Description, rec.Attempt, rec.MaxAttempts, contextJSON, rec.Error)
			refs = append(refs, recordRef{scenario: r.ID, seq: i})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	if br == nil {
		return fmt.Errorf("failed to send batch: batch results is nil")
	}
	defer func() {
		_ = br.Close()
	}()

	for _, ref := range refs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert record %d for scenario %s: %w", ref.seq, ref.scenario, err)
		}
	}
	return nil
}

func encodeContext(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

const (
	sqlGetRun = `
        SELECT id, suite, driver, started_at, finished_at
        FROM runs
        WHERE id = $1;
    `
	sqlGetResults = `
        SELECT scenario_id, title, tags, status, error, started_at, duration_ns
        FROM scenario_results
        WHERE run_id = $1
        ORDER BY position ASC;
    `
	sqlGetRecords = `
        SELECT scenario_id, recorded_at, level, message, action, description, attempt, max_attempts, context, error
        FROM action_records
        WHERE run_id = $1
        ORDER BY scenario_id, seq ASC;
    `
	sqlLatestRun = `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1;`
)

// LoadRun reads a run with its results and records.
func (s *Store) LoadRun(ctx context.Context, id string) (*results.Run, error) {
	run := &results.Run{}
	err := s.pool.QueryRow(ctx, sqlGetRun, id).Scan(&run.ID, &run.Suite, &run.Driver, &run.Started, &run.Finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if run.Results, err = s.loadResults(ctx, id); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(run.Results))
	for i, r := range run.Results {
		index[r.ID] = i
	}

	rows, err := s.pool.Query(ctx, sqlGetRecords, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query action records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			scenarioID  string
			rec         action.Record
			contextJSON []byte
		)
		if err := rows.Scan(&scenarioID, &rec.Time, &rec.Level, &rec.Message, &rec.Action, &rec.Description,
			&rec.Attempt, &rec.MaxAttempts, &contextJSON, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan action record row: %w", err)
		}
		if len(contextJSON) > 0 && string(contextJSON) != "{}" {
			if err := json.Unmarshal(contextJSON, &rec.Context); err != nil {
				return nil, fmt.Errorf("failed to decode record context: %w", err)
			}
		}
		i, ok := index[scenarioID]
		if !ok {
			s.log.Warn("Dropping action record for unknown scenario", zap.String("run_id", id), zap.String("scenario", scenarioID))
			continue
		}
		run.Results[i].Records = append(run.Results[i].Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return run, nil
}

func (s *Store) loadResults(ctx context.Context, id string) ([]results.ScenarioResult, error) {
	rows, err := s.pool.Query(ctx, sqlGetResults, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario results: %w", err)
	}
	defer rows.Close()

	var out []results.ScenarioResult
	for rows.Next() {
		var (
			r        results.ScenarioResult
			status   string
			duration int64
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Tags, &status, &r.Error, &r.Started, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan scenario result row: %w", err)
		}
		r.Status = results.Status(status)
		r.Duration = time.Duration(duration)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// LatestRunID returns the ID of the most recently started run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, sqlLatestRun).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}

// Package store provides the persistent run registry.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// RunStore records trainer launches in a SQLite database under the launcher
// state directory.
type RunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open creates a RunStore at <stateDir>/mixlaunch.db, creating the state
// directory and schema as needed.
func Open(stateDir string) (*RunStore, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, "mixlaunch.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RunStore{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// Record inserts a run row. Called before the trainer is spawned, so a
// launcher crash still leaves an inspectable row in StatusRunning.
func (s *RunStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	commandJSON, err := json.Marshal(run.Command)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, preset, dataset, net, gpu, command, params,
			save_dir, tag, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Preset, run.Dataset, run.Net, run.GPU,
		string(commandJSON), string(paramsJSON),
		run.SaveDir, run.Tag, run.Status,
		run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finalize records the outcome of a run. exitCode may be nil when the
// trainer never produced one (startup failure).
func (s *RunStore) Finalize(ctx context.Context, id, status string, exitCode *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, exit_code = ?, finished_at = ?
		WHERE id = ?`,
		status, nullableInt(exitCode),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// Get returns the run with the given ID, or nil if it does not exist.
func (s *RunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns runs newest first, narrowed by filter.
func (s *RunStore) List(ctx context.Context, filter Filter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRuns
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Preset != "" {
		conds = append(conds, "preset = ?")
		args = append(args, filter.Preset)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const selectRuns = `
	SELECT id, preset, dataset, net, gpu, command, params,
		save_dir, tag, status, exit_code, started_at, finished_at
	FROM runs`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var commandJSON, paramsJSON string
	var dataset, net, saveDir, tag sql.NullString
	var exitCode sql.NullInt64
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(&run.ID, &run.Preset, &dataset, &net, &run.GPU,
		&commandJSON, &paramsJSON, &saveDir, &tag,
		&run.Status, &exitCode, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.Dataset = dataset.String
	run.Net = net.String
	run.SaveDir = saveDir.String
	run.Tag = tag.String

	if err := json.Unmarshal([]byte(commandJSON), &run.Command); err != nil {
		return nil, fmt.Errorf("unmarshal command: %w", err)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ExitCode = &code
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &ts
	}

	return &run, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite implements corpus.Store and corpus.CheckpointStore on a
// single SQLite file. Every property filter except relative due symbols is
// translated to SQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
)

// Store is a SQLite-backed task corpus.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ corpus.Store           = (*Store)(nil)
	_ corpus.CheckpointStore = (*Store)(nil)
)

// Open opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	// Connection pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-store"),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	text TEXT NOT NULL,
	location TEXT NOT NULL,
	source TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	due TEXT,
	created TEXT,
	completed TEXT,
	status TEXT NOT NULL DEFAULT '',
	folder TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due);
CREATE INDEX IF NOT EXISTS idx_tasks_source ON tasks(source);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	UNIQUE(task_id, tag),
	FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS checkpoints (
	source TEXT PRIMARY KEY,
	mod_time TEXT NOT NULL,
	size INTEGER NOT NULL,
	task_count INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// PutTasks inserts or replaces tasks by ID.
func (s *Store) PutTasks(ctx context.Context, tasks ...*core.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tasks {
		if err := upsertTask(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertTask(ctx context.Context, tx *sql.Tx, t *core.Task) error {
	corpus.AssignID(t)
	if err := core.ValidateTask(t); err != nil {
		return err
	}

	const stmt = `
INSERT INTO tasks (id, text, location, source, priority, due, created, completed, status, folder)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	text=excluded.text,
	location=excluded.location,
	source=excluded.source,
	priority=excluded.priority,
	due=excluded.due,
	created=excluded.created,
	completed=excluded.completed,
	status=excluded.status,
	folder=excluded.folder;
`
	_, err := tx.ExecContext(ctx, stmt,
		rowID(t.ID),
		t.Text,
		t.Location,
		corpus.SourceOf(t.Location),
		t.Priority,
		nullDay(t.Due),
		nullDay(t.Created),
		nullDay(t.Completed),
		t.Status,
		core.NormalizeFolder(t.Folder),
	)
	if err != nil {
		return err
	}
	return replaceTaskTags(ctx, tx, t.ID, t.Tags)
}

func replaceTaskTags(ctx context.Context, tx *sql.Tx, id core.ID, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id=?`, rowID(id)); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, tag := range tags {
		tag = core.NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rowID(id), tag); err != nil {
			return err
		}
	}
	return nil
}

// GetTask retrieves a single task by ID.
func (s *Store) GetTask(ctx context.Context, id core.ID) (*core.Task, error) {
	tasks, err := s.queryTasks(ctx, "WHERE id = ?", rowID(id))
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, corpus.ErrNotFound
	}
	return tasks[0], nil
}

// DeleteTasks removes tasks by ID. Tags go with them.
func (s *Store) DeleteTasks(ctx context.Context, ids ...core.ID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM tasks WHERE id=?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, rowID(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceSource swaps every task of source for tasks in one transaction.
func (s *Store) ReplaceSource(ctx context.Context, source string, tasks ...*core.Task) error {
	if source == "" {
		return corpus.ErrSourceRequired
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE source=?`, source)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := upsertTask(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	removed, _ := res.RowsAffected()
	s.logger.Debug("replaced source", "source", source, "removed", removed, "added", len(tasks))
	return nil
}

// CountTasks returns the number of stored tasks.
func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// FetchCandidates returns tasks matching filters. Relative due symbols are
// left to the caller; everything else is evaluated by SQLite.
func (s *Store) FetchCandidates(ctx context.Context, filters core.PropertyFilters) ([]*core.Task, error) {
	where, args, err := buildWhere(corpus.Pushdown(filters))
	if err != nil {
		return nil, err
	}
	tasks, err := s.queryTasks(ctx, where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetched candidates", "count", len(tasks), "where", where)
	return tasks, nil
}

// buildWhere translates filters into a WHERE clause. An empty clause
// means no constraint.
func buildWhere(f core.PropertyFilters) (string, []any, error) {
	var clauses []string
	var args []any

	switch p := f.Priority.(type) {
	case nil:
	case core.PriorityLevel:
		clauses = append(clauses, "priority = ?")
		args = append(args, int(p))
	case core.PriorityAny:
		clauses = append(clauses, "priority BETWEEN ? AND ?")
		args = append(args, core.PriorityHighest, core.PriorityLowest)
	default:
		return "", nil, fmt.Errorf("unsupported priority filter %T", p)
	}

	switch d := f.Due.(type) {
	case nil:
	case core.DueSymbol:
		switch d {
		case core.DueAny:
			clauses = append(clauses, "due IS NOT NULL")
		case core.DueNone:
			clauses = append(clauses, "due IS NULL")
		default:
			return "", nil, fmt.Errorf("%w: %q cannot be pushed down", core.ErrInvalidDueFilter, d)
		}
	case core.DueRange:
		op, err := rangeOperator(d.Op)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "due "+op+" ?")
		args = append(args, d.Ref.Format(core.DateLayout))
	default:
		return "", nil, fmt.Errorf("%w: %T", core.ErrInvalidDueFilter, d)
	}

	if f.Status != nil {
		if len(f.Status.Keys) == 0 {
			clauses = append(clauses, "0")
		} else {
			marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Status.Keys)), ",")
			clauses = append(clauses, "status IN ("+marks+")")
			for _, key := range f.Status.Keys {
				args = append(args, key)
			}
		}
	}

	for _, tag := range f.Tags {
		tag = core.NormalizeTag(tag)
		if tag == "" {
			continue
		}
		clauses = append(clauses, `EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = tasks.id AND (tt.tag = ? OR tt.tag LIKE ? ESCAPE '\'))`)
		args = append(args, tag, escapeLike(tag)+"/%")
	}

	if folder := strings.ToLower(core.NormalizeFolder(f.Folder)); folder != "" {
		clauses = append(clauses, `(lower(folder) = ? OR lower(folder) LIKE ? ESCAPE '\')`)
		args = append(args, folder, escapeLike(folder)+"/%")
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

func rangeOperator(op core.RangeOp) (string, error) {
	switch op {
	case core.RangeBefore:
		return "<", nil
	case core.RangeOnOrBefore:
		return "<=", nil
	case core.RangeAfter:
		return ">", nil
	case core.RangeOnOrAfter:
		return ">=", nil
	case core.RangeOn:
		return "=", nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownRangeOp, op)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) queryTasks(ctx context.Context, where string, args ...any) ([]*core.Task, error) {
	query := `SELECT id, text, location, priority, due, created, completed, status, folder FROM tasks ` + where
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*core.Task
	for rows.Next() {
		var (
			id                      int64
			t                       core.Task
			due, created, completed sql.NullString
		)
		if err := rows.Scan(&id, &t.Text, &t.Location, &t.Priority, &due, &created, &completed, &t.Status, &t.Folder); err != nil {
			return nil, err
		}
		t.ID = core.ID(uint64(id))
		if t.Due, err = corpus.ParseDay(due.String); err != nil {
			return nil, err
		}
		if t.Created, err = corpus.ParseDay(created.String); err != nil {
			return nil, err
		}
		if t.Completed, err = corpus.ParseDay(completed.String); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		t.Tags, err = s.loadStringColumn(ctx, `SELECT tag FROM task_tags WHERE task_id=? ORDER BY tag`, rowID(t.ID))
		if err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *Store) loadStringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}

// SaveCheckpoint persists the import checkpoint of one source file.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *corpus.Checkpoint) error {
	if checkpoint == nil || checkpoint.Source == "" {
		return corpus.ErrSourceRequired
	}
	checkpoint.UpdatedAt = time.Now().UTC()

	const stmt = `
INSERT INTO checkpoints (source, mod_time, size, task_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source) DO UPDATE SET
	mod_time=excluded.mod_time,
	size=excluded.size,
	task_count=excluded.task_count,
	updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		checkpoint.Source,
		checkpoint.ModTime.UTC().Format(time.RFC3339Nano),
		checkpoint.Size,
		checkpoint.TaskCount,
		checkpoint.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// LoadCheckpoint returns nil, nil when source has no checkpoint.
func (s *Store) LoadCheckpoint(ctx context.Context, source string) (*corpus.Checkpoint, error) {
	var (
		cp                corpus.Checkpoint
		modTime, updateAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT source, size, task_count, mod_time, updated_at FROM checkpoints WHERE source=?`, source,
	).Scan(&cp.Source, &cp.Size, &cp.TaskCount, &modTime, &updateAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cp.ModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
		return nil, fmt.Errorf("%w: %w", corpus.ErrSerializationFailed, err)
	}
	if cp.UpdatedAt, err = time.Parse(time.RFC3339Nano, updateAt); err != nil {
		return nil, fmt.Errorf("%w: %w", corpus.ErrSerializationFailed, err)
	}
	return &cp, nil
}

// rowID maps a task ID onto SQLite's signed 64-bit rowid.
func rowID(id core.ID) int64 {
	return int64(id)
}

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: corpus.FormatDay(t), Valid: true}
}

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

package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
)

// TaskStore implements corpus.Store for BadgerDB. Status, due-date and
// source indexes let FetchCandidates avoid a full scan when the query
// constrains status or an absolute due range.
type TaskStore struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ corpus.Store = (*TaskStore)(nil)

// NewTaskStore creates a store over an open backend. Closing the store
// leaves the backend open.
func NewTaskStore(backend *Backend) (*TaskStore, error) {
	if backend == nil {
		return nil, errors.New("badger backend is required")
	}
	return &TaskStore{
		backend: backend,
		logger:  slog.Default().With("component", "task-store"),
	}, nil
}

// NewStore opens a BadgerDB task store at path. The store owns the
// database and closes it on Close.
func NewStore(path string) (corpus.Store, error) {
	backend, err := OpenBackend(path)
	if err != nil {
		return nil, err
	}
	s, err := NewTaskStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.ownsBackend = true
	return s, nil
}

// Close closes the backend if the store opened it.
func (s *TaskStore) Close() error {
	if s.ownsBackend {
		return s.backend.Close()
	}
	return nil
}

// PutTasks inserts or replaces tasks by ID.
func (s *TaskStore) PutTasks(ctx context.Context, tasks ...*core.Task) error {
	return s.backend.Update(func(tx *badger.Txn) error {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.putTask(tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TaskStore) putTask(tx *badger.Txn, t *core.Task) error {
	corpus.AssignID(t)
	if err := core.ValidateTask(t); err != nil {
		return err
	}

	key := makeTaskKey(t.ID)
	old, err := readTask(tx, key)
	if err != nil {
		return err
	}
	if old != nil {
		if err := deleteIndexes(tx, old); err != nil {
			return err
		}
	}

	if err := tx.Set(key, corpus.MarshalTask(t)); err != nil {
		return err
	}
	return setIndexes(tx, t)
}

// GetTask retrieves a single task by ID.
func (s *TaskStore) GetTask(ctx context.Context, id core.ID) (*core.Task, error) {
	var result *core.Task
	err := s.backend.View(func(tx *badger.Txn) error {
		var err error
		result, err = readTask(tx, makeTaskKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return corpus.ErrNotFound
		}
		return nil
	})
	return result, err
}

// DeleteTasks removes tasks and their index entries.
func (s *TaskStore) DeleteTasks(ctx context.Context, ids ...core.ID) error {
	return s.backend.Update(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := deleteTask(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteTask(tx *badger.Txn, id core.ID) error {
	key := makeTaskKey(id)
	t, err := readTask(tx, key)
	if err != nil || t == nil {
		return err
	}
	if err := deleteIndexes(tx, t); err != nil {
		return err
	}
	return tx.Delete(key)
}

// ReplaceSource removes every task indexed under source and stores tasks
// in the same transaction.
func (s *TaskStore) ReplaceSource(ctx context.Context, source string, tasks ...*core.Task) error {
	if source == "" {
		return corpus.ErrSourceRequired
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		ids, err := scanIDs(tx, makeSourcePrefix(source), nil, nil)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := deleteTask(tx, id); err != nil {
				return err
			}
		}
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.putTask(tx, t); err != nil {
				return err
			}
		}
		s.logger.Debug("replaced source", "source", source, "removed", len(ids), "added", len(tasks))
		return nil
	})
}

// CountTasks returns the number of stored tasks.
func (s *TaskStore) CountTasks(ctx context.Context) (int, error) {
	n := 0
	err := s.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// FetchCandidates returns tasks matching the day-independent part of
// filters. Status filters are served from the status index, absolute due
// ranges and "has a due date" from the due-date index; anything else is a
// full scan.
func (s *TaskStore) FetchCandidates(ctx context.Context, filters core.PropertyFilters) ([]*core.Task, error) {
	pushed := corpus.Pushdown(filters)
	now := time.Now()

	var out []*core.Task
	err := s.backend.View(func(tx *badger.Txn) error {
		ids, indexed, err := candidateIDs(tx, pushed)
		if err != nil {
			return err
		}

		keep := func(t *core.Task) {
			if t != nil && pushed.Matches(t, now) {
				out = append(out, t)
			}
		}

		if !indexed {
			return scanTasks(ctx, tx, keep)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := readTask(tx, makeTaskKey(id))
			if err != nil {
				return err
			}
			keep(t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched candidates", "count", len(out), "pushdown", pushed.Status != nil || pushed.Due != nil)
	return out, nil
}

// candidateIDs consults an index when one applies. indexed is false when
// the caller must scan every task.
func candidateIDs(tx *badger.Txn, f core.PropertyFilters) ([]core.ID, bool, error) {
	if f.Status != nil {
		var ids []core.ID
		for _, key := range f.Status.Keys {
			found, err := scanIDs(tx, makeStatusPrefix(key), nil, nil)
			if err != nil {
				return nil, false, err
			}
			ids = append(ids, found...)
		}
		return ids, true, nil
	}

	switch due := f.Due.(type) {
	case core.DueRange:
		lo, hi := dueBounds(due)
		ids, err := scanIDs(tx, []byte(dueIndex), lo, hi)
		return ids, true, err
	case core.DueSymbol:
		if due == core.DueAny {
			ids, err := scanIDs(tx, []byte(dueIndex), nil, nil)
			return ids, true, err
		}
	}
	return nil, false, nil
}

// dueBounds returns the [lo, hi) key range of a due range; nil is open.
func dueBounds(r core.DueRange) (lo, hi []byte) {
	ref := dayNumber(r.Ref)
	next := dayNumber(r.Ref.AddDate(0, 0, 1))
	switch r.Op {
	case core.RangeBefore:
		return nil, makeDuePartialKey(ref)
	case core.RangeOnOrBefore:
		return nil, makeDuePartialKey(next)
	case core.RangeAfter:
		return makeDuePartialKey(next), nil
	case core.RangeOnOrAfter:
		return makeDuePartialKey(ref), nil
	case core.RangeOn:
		return makeDuePartialKey(ref), makeDuePartialKey(next)
	}
	return nil, nil
}

// scanIDs collects the IDs of index keys under prefix within [lo, hi).
func scanIDs(tx *badger.Txn, prefix, lo, hi []byte) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	start := prefix
	if lo != nil {
		start = lo
	}

	var ids []core.ID
	for iter.Seek(start); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if hi != nil && bytes.Compare(key, hi) >= 0 {
			break
		}
		if id, ok := idFromIndexKey(key); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func scanTasks(ctx context.Context, tx *badger.Txn, fn func(*core.Task)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(taskPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var t *core.Task
		err := iter.Item().Value(func(val []byte) error {
			var err error
			t, err = corpus.UnmarshalTask(val)
			return err
		})
		if err != nil {
			return err
		}
		fn(t)
	}
	return nil
}

// readTask returns nil, nil when key does not exist.
func readTask(tx *badger.Txn, key []byte) (*core.Task, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var t *core.Task
	err = item.Value(func(val []byte) error {
		var err error
		t, err = corpus.UnmarshalTask(val)
		return err
	})
	return t, err
}

func setIndexes(tx *badger.Txn, t *core.Task) error {
	marker := []byte{}
	if t.Status != "" {
		if err := tx.Set(makeStatusKey(t.Status, t.ID), marker); err != nil {
			return err
		}
	}
	if t.Due != nil {
		if err := tx.Set(makeDueKey(*t.Due, t.ID), marker); err != nil {
			return err
		}
	}
	if source := corpus.SourceOf(t.Location); source != "" {
		if err := tx.Set(makeSourceKey(source, t.ID), marker); err != nil {
			return err
		}
	}
	return nil
}

func deleteIndexes(tx *badger.Txn, t *core.Task) error {
	var keys [][]byte
	if t.Status != "" {
		keys = append(keys, makeStatusKey(t.Status, t.ID))
	}
	if t.Due != nil {
		keys = append(keys, makeDueKey(*t.Due, t.ID))
	}
	if source := corpus.SourceOf(t.Location); source != "" {
		keys = append(keys, makeSourceKey(source, t.ID))
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return fmt.Errorf("deleting index %q: %w", key, err)
		}
	}
	return nil
}

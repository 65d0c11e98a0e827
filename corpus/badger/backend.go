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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/taskrank/corpus"
)

// ErrNotADirectory is returned when the corpus path exists but is a file.
var ErrNotADirectory = errors.New("corpus path is not a directory")

// conflictRetries bounds how often Update re-runs a transaction that lost a
// write conflict to a concurrent importer worker.
const conflictRetries = 3

// Backend owns the BadgerDB instance shared by the task and checkpoint
// stores.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

type backendOptions struct {
	inMemory   bool
	syncWrites bool
	logger     *slog.Logger
}

// BackendOption configures OpenBackend.
type BackendOption func(*backendOptions)

// InMemory keeps every table in memory; the path is ignored.
func InMemory() BackendOption {
	return func(o *backendOptions) {
		o.inMemory = true
	}
}

// WithSyncWrites fsyncs every commit.
func WithSyncWrites() BackendOption {
	return func(o *backendOptions) {
		o.syncWrites = true
	}
}

// WithBackendLogger routes badger's own log lines to logger.
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(o *backendOptions) {
		o.logger = logger
	}
}

// slogAdapter satisfies badger.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, items ...any)   { a.logger.Error(fmt.Sprintf(msg, items...)) }
func (a *slogAdapter) Warningf(msg string, items ...any) { a.logger.Warn(fmt.Sprintf(msg, items...)) }
func (a *slogAdapter) Debugf(msg string, items ...any)   { a.logger.Debug(fmt.Sprintf(msg, items...)) }

// Compaction and value log chatter is demoted to debug.
func (a *slogAdapter) Infof(msg string, items ...any) { a.logger.Debug(fmt.Sprintf(msg, items...)) }

// OpenBackend opens the corpus database in the directory at path, creating
// it when missing.
func OpenBackend(path string, opts ...BackendOption) (*Backend, error) {
	o := &backendOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "badger")

	var bopts badger.Options
	if o.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(path).WithSyncWrites(o.syncWrites)
	}
	bopts = bopts.
		WithLogger(&slogAdapter{logger: logger}).
		WithCompression(options.None)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger corpus: %w", err)
	}
	logger.Debug("corpus opened", "path", path, "inMemory", o.inMemory)
	return &Backend{db: db, logger: logger}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(path, 0o755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// View runs fn in a read-only transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	if b.db.IsClosed() {
		return corpus.ErrStorageClosed
	}
	return b.db.View(fn)
}

// Update runs fn in a read-write transaction and commits it. fn must not
// commit. A transaction that loses a write conflict is re-run from scratch.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	if b.db.IsClosed() {
		return corpus.ErrStorageClosed
	}
	var err error
	for range conflictRetries {
		if err = b.db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
		b.logger.Debug("transaction conflict, retrying")
	}
	return err
}

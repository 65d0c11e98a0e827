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
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/taskrank/corpus"
)

// CheckpointStore implements corpus.CheckpointStore for BadgerDB.
type CheckpointStore struct {
	backend *Backend
}

var _ corpus.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(backend *Backend) *CheckpointStore {
	return &CheckpointStore{
		backend: backend,
	}
}

// SaveCheckpoint persists the import checkpoint of one source file.
func (r *CheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *corpus.Checkpoint) error {
	if checkpoint == nil || checkpoint.Source == "" {
		return corpus.ErrSourceRequired
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeCheckpointKey(checkpoint.Source), corpus.MarshalCheckpoint(checkpoint)); err != nil {
			return err
		}
		return nil
	})
}

// LoadCheckpoint retrieves the checkpoint of a source file.
// Returns nil, nil if no checkpoint exists.
func (r *CheckpointStore) LoadCheckpoint(ctx context.Context, source string) (*corpus.Checkpoint, error) {
	var checkpoint *corpus.Checkpoint
	err := r.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(source))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = corpus.UnmarshalCheckpoint(val)
			return unmarshalErr
		})
	})

	return checkpoint, err
}

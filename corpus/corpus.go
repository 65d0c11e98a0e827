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

package corpus

import (
	"context"
	"time"

	"github.com/poiesic/taskrank/core"
)

// Provider supplies candidate tasks for a query. Filter pushdown is an
// optimization: a provider may return tasks that violate filters it does
// not understand, and callers re-validate every candidate.
type Provider interface {
	FetchCandidates(ctx context.Context, filters core.PropertyFilters) ([]*core.Task, error)
}

// Store is a writable task corpus.
type Store interface {
	Provider

	// PutTasks inserts or replaces tasks by ID. Tasks with ID 0 get an ID
	// derived from their location.
	PutTasks(ctx context.Context, tasks ...*core.Task) error

	// GetTask returns ErrNotFound when no task has id.
	GetTask(ctx context.Context, id core.ID) (*core.Task, error)

	// DeleteTasks removes tasks by ID. Missing IDs are ignored.
	DeleteTasks(ctx context.Context, ids ...core.ID) error

	// ReplaceSource atomically replaces every task imported from source
	// (a file path) with tasks.
	ReplaceSource(ctx context.Context, source string, tasks ...*core.Task) error

	// CountTasks returns the number of stored tasks.
	CountTasks(ctx context.Context) (int, error)

	// Close releases the store.
	Close() error
}

// Checkpoint records the last import of one source file.
type Checkpoint struct {
	Source    string    `json:"source"`
	ModTime   time.Time `json:"modTime"`
	Size      int64     `json:"size"`
	TaskCount int       `json:"taskCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Unchanged reports whether a file with modTime and size matches c.
func (c *Checkpoint) Unchanged(modTime time.Time, size int64) bool {
	return c != nil && c.ModTime.Equal(modTime) && c.Size == size
}

// CheckpointStore persists import checkpoints.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error

	// LoadCheckpoint returns nil, nil when source has no checkpoint.
	LoadCheckpoint(ctx context.Context, source string) (*Checkpoint, error)
}

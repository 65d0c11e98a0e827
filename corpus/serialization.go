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
	"fmt"
	"time"

	"github.com/poiesic/taskrank/core"
)

// MarshalTask serializes a Task to bytes. Dates keep only their calendar day.
func MarshalTask(t *core.Task) []byte {
	buf := make([]byte, TaskMUS.Size(*t))
	TaskMUS.Marshal(*t, buf)
	return buf
}

// UnmarshalTask deserializes a Task from bytes.
func UnmarshalTask(data []byte) (*core.Task, error) {
	t, _, err := TaskMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: task: %w", ErrSerializationFailed, err)
	}
	return &t, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(c *Checkpoint) []byte {
	buf := make([]byte, CheckpointMUS.Size(*c))
	CheckpointMUS.Marshal(*c, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	c, _, err := CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %w", ErrSerializationFailed, err)
	}
	return &c, nil
}

// FormatDay renders a date as YYYY-MM-DD, or "" for nil.
func FormatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(core.DateLayout)
}

// ParseDay parses YYYY-MM-DD as a UTC calendar day; "" yields nil.
func ParseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &d, nil
}

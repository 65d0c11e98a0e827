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

package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for tasks.
// It is derived from the task's location so re-imports are idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Priority levels. Lower numbers are more urgent; PriorityNone means unset.
const (
	PriorityNone    = 0
	PriorityHighest = 1
	PriorityLowest  = 4
)

// Task is a read-only snapshot of a task record owned by a corpus.
type Task struct {
	ID        ID
	Text      string
	Location  string     // Opaque reference back into the source, e.g. "notes/todo.md:12"
	Priority  int        // 1 (highest) to 4 (lowest), 0 when unset
	Due       *time.Time // nil when the task has no due date
	Created   *time.Time
	Completed *time.Time
	Status    string   // Glossary status key, empty when unknown
	Tags      []string // Lowercase, without the leading '#'
	Folder    string   // Slash separated, no leading or trailing slash
}

// HasPriority reports whether the task carries a priority level.
func (t *Task) HasPriority() bool {
	return t.Priority >= PriorityHighest && t.Priority <= PriorityLowest
}

// HasTag reports whether the task carries tag, or a nested tag below it
// ("work" matches "work/urgent").
func (t *Task) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" {
		return false
	}
	for _, have := range t.Tags {
		have = NormalizeTag(have)
		if have == tag || strings.HasPrefix(have, tag+"/") {
			return true
		}
	}
	return false
}

// InFolder reports whether the task lives in folder or one of its subfolders.
func (t *Task) InFolder(folder string) bool {
	folder = NormalizeFolder(folder)
	if folder == "" {
		return true
	}
	have := strings.ToLower(NormalizeFolder(t.Folder))
	folder = strings.ToLower(folder)
	return have == folder || strings.HasPrefix(have, folder+"/")
}

// NormalizeTag lowercases a tag and strips the leading '#'.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// NormalizeFolder trims whitespace and surrounding slashes from a folder path.
func NormalizeFolder(folder string) string {
	return strings.Trim(strings.TrimSpace(folder), "/")
}

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
	"encoding/binary"
	"time"

	"github.com/poiesic/taskrank/core"
)

const (
	taskPrefix       = "tsk:"
	statusIndex      = "tskst:"
	dueIndex         = "tskdue:"
	sourceIndex      = "tsksrc:"
	checkpointPrefix = "chkpt:"

	idSize  = 8
	daySize = 4
)

// makeTaskKey generates a key for a task by ID.
// Format: prefix + id (8 bytes)
func makeTaskKey(id core.ID) []byte {
	buf := make([]byte, len(taskPrefix)+idSize)
	offset := copy(buf, taskPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeStatusPrefix generates the index prefix for one status key.
// Format: prefix + status + 0x00
func makeStatusPrefix(status string) []byte {
	buf := make([]byte, 0, len(statusIndex)+len(status)+1)
	buf = append(buf, statusIndex...)
	buf = append(buf, status...)
	return append(buf, 0)
}

// makeStatusKey generates a composite key for the status index.
// Format: prefix + status + 0x00 + id
func makeStatusKey(status string, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeStatusPrefix(status), uint64(id))
}

// dayNumber encodes a calendar day as YYYYMMDD so keys sort by date.
func dayNumber(t time.Time) uint32 {
	y, m, d := t.Date()
	return uint32(y*10000 + int(m)*100 + d)
}

// makeDuePartialKey generates a partial key for due-date range scans.
// Format: prefix + yyyymmdd (4 bytes)
func makeDuePartialKey(day uint32) []byte {
	buf := make([]byte, len(dueIndex)+daySize)
	offset := copy(buf, dueIndex)
	binary.BigEndian.PutUint32(buf[offset:], day)
	return buf
}

// makeDueKey generates a composite key for the due-date index.
// Format: prefix + yyyymmdd (4 bytes) + id (8 bytes)
func makeDueKey(due time.Time, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeDuePartialKey(dayNumber(due)), uint64(id))
}

// makeSourcePrefix generates the index prefix for one source file.
// Format: prefix + source + 0x00
func makeSourcePrefix(source string) []byte {
	buf := make([]byte, 0, len(sourceIndex)+len(source)+1)
	buf = append(buf, sourceIndex...)
	buf = append(buf, source...)
	return append(buf, 0)
}

// makeSourceKey generates a composite key for the source index.
// Format: prefix + source + 0x00 + id
func makeSourceKey(source string, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeSourcePrefix(source), uint64(id))
}

// idFromIndexKey reads the trailing task ID of an index key.
func idFromIndexKey(key []byte) (core.ID, bool) {
	if len(key) < idSize {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-idSize:])), true
}

// makeCheckpointKey generates a key for an import checkpoint.
func makeCheckpointKey(source string) []byte {
	return []byte(checkpointPrefix + source)
}

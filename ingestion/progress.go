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

package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress is a point-in-time view of an import run.
type Progress struct {
	Done    int // files finished, whatever their outcome
	Total   int
	Skipped int
	Failed  int
	Tasks   int
	Elapsed time.Duration
}

// Percent returns the share of finished files. An empty run is complete.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Done) / float64(p.Total) * 100
}

func (p Progress) String() string {
	return fmt.Sprintf("Imported %d/%d files (%.1f%%): %d tasks, %d skipped, %d failed [%s]",
		p.Done, p.Total, p.Percent(), p.Tasks, p.Skipped, p.Failed, p.Elapsed.Round(time.Millisecond))
}

// ProgressTracker counts finished files and rewrites a single status line
// on w every few files. A nil writer tracks silently. It is safe for
// concurrent use.
type ProgressTracker struct {
	mu     sync.Mutex
	w      io.Writer
	every  int
	next   int
	start  time.Time
	state  Progress
	closed bool
}

// NewProgressTracker starts tracking total files, printing after every
// `every` files.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	every = max(every, 1)
	return &ProgressTracker{
		w:     w,
		every: every,
		next:  every,
		start: time.Now(),
		state: Progress{Total: total},
	}
}

// Record accounts for one finished file.
func (t *ProgressTracker) Record(tasks int, skipped bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.state.Done = min(t.state.Done+1, t.state.Total)
	switch {
	case err != nil:
		t.state.Failed++
	case skipped:
		t.state.Skipped++
	default:
		t.state.Tasks += tasks
	}

	if t.state.Done >= t.next {
		t.print()
		t.next = t.state.Done + t.every
	}
}

// Snapshot returns the current counts.
func (t *ProgressTracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Finish prints the final line and stops tracking. Further calls to Record
// are ignored.
func (t *ProgressTracker) Finish() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.print()
		if t.w != nil {
			fmt.Fprintln(t.w)
		}
	}
	return t.snapshot()
}

func (t *ProgressTracker) snapshot() Progress {
	p := t.state
	p.Elapsed = time.Since(t.start)
	return p
}

// print requires t.mu.
func (t *ProgressTracker) print() {
	if t.w == nil {
		return
	}
	fmt.Fprint(t.w, "\r"+t.snapshot().String())
}

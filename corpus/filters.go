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
	"strings"
	"time"

	"github.com/poiesic/taskrank/core"
)

// Pushdown returns the part of f that does not depend on the current day:
// relative due symbols such as "today" are dropped, presence checks and
// absolute ranges are kept. Stores apply the result to narrow candidates.
func Pushdown(f core.PropertyFilters) core.PropertyFilters {
	out := f
	if sym, ok := f.Due.(core.DueSymbol); ok && sym.IsRelative() {
		out.Due = nil
	}
	return out
}

// Filter returns the tasks that satisfy every constraint of f as of now.
// Input order is kept.
func Filter(tasks []*core.Task, f core.PropertyFilters, now time.Time) []*core.Task {
	out := make([]*core.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// SourceOf returns the file part of a "path:line" location.
func SourceOf(location string) string {
	i := strings.LastIndexByte(location, ':')
	if i <= 0 {
		return location
	}
	for _, r := range location[i+1:] {
		if r < '0' || r > '9' {
			return location
		}
	}
	return location[:i]
}

// AssignID derives the task ID from its location when unset.
func AssignID(t *core.Task) {
	if t.ID == 0 {
		t.ID = core.IDFromContent(t.Location)
	}
}

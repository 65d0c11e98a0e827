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

package rank

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/score"
)

// Epsilon absorbs floating point noise between scores. It is not a
// relevance threshold.
const Epsilon = 1e-6

// Entry is a scored task.
type Entry struct {
	Task      *core.Task      `json:"task"`
	Breakdown score.Breakdown `json:"breakdown"`
}

// Score is the final score of the entry.
func (e Entry) Score() float64 {
	return e.Breakdown.Final
}

// Sorter orders scored tasks. It is immutable and safe for concurrent use.
type Sorter struct {
	criteria []config.Criterion
	glossary *glossary.Glossary
}

// NewSorter creates a sorter with the tie-break criteria of cfg. Criteria
// that are not tie-break keys, such as relevance, are skipped; config
// validation reports them.
func NewSorter(cfg *config.Config, g *glossary.Glossary) *Sorter {
	criteria := config.DefaultTieBreak()
	if cfg != nil {
		criteria = cfg.TieBreak
	}
	if g == nil {
		g = glossary.Default()
	}
	s := &Sorter{glossary: g}
	for _, c := range criteria {
		if c == config.ByRelevance || slices.Contains(s.criteria, c) {
			continue
		}
		s.criteria = append(s.criteria, c)
	}
	return s
}

// Criteria returns the effective tie-break order.
func (s *Sorter) Criteria() []config.Criterion {
	return slices.Clone(s.criteria)
}

// Sort orders entries in place by score, highest first. Scores that are
// within Epsilon of their neighbour form one tie group, which is ordered by
// the tie-break criteria and finally by task ID. The result depends only on
// the scores and task data, so sorting a sorted slice changes nothing.
func (s *Sorter) Sort(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return compareID(a.Task, b.Task)
	})

	for _, g := range TieGroups(entries) {
		group := entries[g[0]:g[1]]
		slices.SortFunc(group, func(a, b Entry) int {
			return s.Compare(a.Task, b.Task)
		})
	}
}

// TieGroups returns the [start, end) bounds of runs in a score-sorted slice
// whose consecutive scores differ by at most Epsilon. Runs of one entry are
// omitted.
func TieGroups(entries []Entry) [][2]int {
	var groups [][2]int
	start := 0
	for i := 1; i <= len(entries); i++ {
		if i < len(entries) && entries[i-1].Score()-entries[i].Score() <= Epsilon {
			continue
		}
		if i-start > 1 {
			groups = append(groups, [2]int{start, i})
		}
		start = i
	}
	return groups
}

// Compare orders two tasks by the tie-break criteria, then by ID. It is a
// total order.
func (s *Sorter) Compare(a, b *core.Task) int {
	for _, c := range s.criteria {
		if r := s.compareBy(c, a, b); r != 0 {
			return r
		}
	}
	return compareID(a, b)
}

func (s *Sorter) compareBy(c config.Criterion, a, b *core.Task) int {
	switch c {
	case config.ByDueDate:
		return compareDue(a.Due, b.Due)
	case config.ByPriority:
		return comparePriority(a.Priority, b.Priority)
	case config.ByStatus:
		return s.compareStatus(a.Status, b.Status)
	case config.ByCreated:
		return compareCreated(a.Created, b.Created)
	case config.ByAlphabetical:
		return compareText(a.Text, b.Text)
	}
	return 0
}

// compareDue puts the earliest due date first and missing dates last.
func compareDue(a, b *time.Time) int {
	return nilsLast(a, b, func(x, y *time.Time) int { return x.Compare(*y) })
}

// compareCreated puts the newest task first and missing dates last.
func compareCreated(a, b *time.Time) int {
	return nilsLast(a, b, func(x, y *time.Time) int { return y.Compare(*x) })
}

// comparePriority puts level 1 first and unset levels last.
func comparePriority(a, b int) int {
	validA := a >= core.PriorityHighest && a <= core.PriorityLowest
	validB := b >= core.PriorityHighest && b <= core.PriorityLowest
	switch {
	case validA && validB:
		return cmp.Compare(a, b)
	case validA:
		return -1
	case validB:
		return 1
	}
	return 0
}

// compareStatus follows glossary positions; unmapped keys sort last.
func (s *Sorter) compareStatus(a, b string) int {
	ra, okA := s.glossary.StatusRank(a)
	rb, okB := s.glossary.StatusRank(b)
	switch {
	case okA && okB:
		return cmp.Compare(ra, rb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

// compareText is case-insensitive, with the exact spelling as a final key.
func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareID(a, b *core.Task) int {
	return cmp.Compare(a.ID, b.ID)
}

func nilsLast(a, b *time.Time, f func(x, y *time.Time) int) int {
	switch {
	case a != nil && b != nil:
		return f(a, b)
	case a != nil:
		return -1
	case b != nil:
		return 1
	}
	return 0
}

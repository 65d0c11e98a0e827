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

package score

import (
	"strings"
	"time"

	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
)

// Relevance match weights: a core keyword hit counts a little on top of a
// hit among all keywords.
const (
	CoreMatchWeight = 0.2
	AllMatchWeight  = 1.0
)

// Due-date urgency buckets.
const (
	DueOverdue   = 1.5
	DueThisWeek  = 1.0 // within 7 days
	DueThisMonth = 0.5 // within 30 days
	DueLater     = 0.2
	DueMissing   = 0.1

	weekDays  = 7
	monthDays = 30
)

var priorityScores = map[int]float64{1: 1.0, 2: 0.75, 3: 0.5, 4: 0.2}

// PriorityMissing is the score of a task without a priority.
const PriorityMissing = 0.1

// Components holds one value per scoring dimension.
type Components struct {
	Relevance float64 `json:"relevance"`
	DueDate   float64 `json:"dueDate"`
	Priority  float64 `json:"priority"`
	Status    float64 `json:"status"`
}

// Sum adds the four values.
func (c Components) Sum() float64 {
	return c.Relevance + c.DueDate + c.Priority + c.Status
}

// Activation records which dimensions a query constrains. Inactive
// dimensions contribute nothing regardless of their coefficient.
type Activation struct {
	Relevance bool `json:"relevance"`
	DueDate   bool `json:"dueDate"`
	Priority  bool `json:"priority"`
	Status    bool `json:"status"`
}

// Any reports whether at least one dimension is active.
func (a Activation) Any() bool {
	return a.Relevance || a.DueDate || a.Priority || a.Status
}

// ActivationFor derives the activation flags of q. The due dimension is
// active for a due filter and for a time context alone.
func ActivationFor(q *core.StructuredQuery) Activation {
	if q == nil {
		return Activation{}
	}
	return Activation{
		Relevance: q.HasKeywords(),
		DueDate:   q.Filters.Due != nil || q.TimeContext != "",
		Priority:  q.Filters.Priority != nil,
		Status:    q.Filters.Status != nil,
	}
}

// Breakdown explains one task's score.
type Breakdown struct {
	Components Components `json:"components"`
	Activation Activation `json:"activation"`
	Weighted   Components `json:"weighted"`
	Final      float64    `json:"final"`

	// MatchedCore and MatchedAll count keyword hits behind Components.Relevance.
	MatchedCore int `json:"matchedCore"`
	MatchedAll  int `json:"matchedAll"`
}

// Scorer computes task scores for one glossary and coefficient set. It is
// immutable and safe for concurrent use.
type Scorer struct {
	coef     config.Coefficients
	glossary *glossary.Glossary
}

// NewScorer creates a scorer. A nil config or glossary selects the defaults.
func NewScorer(cfg *config.Config, g *glossary.Glossary) *Scorer {
	coef := config.DefaultCoefficients()
	if cfg != nil {
		coef = cfg.Coefficients
	}
	if g == nil {
		g = glossary.Default()
	}
	return &Scorer{coef: coef, glossary: g}
}

// Coefficients returns the weights in use.
func (s *Scorer) Coefficients() config.Coefficients {
	return s.coef
}

// Score rates t against q as of now.
func (s *Scorer) Score(t *core.Task, q *core.StructuredQuery, now time.Time) Breakdown {
	return s.score(t, q, ActivationFor(q), newMatcher(q), now)
}

// ScoreAll rates every task against q. The result is parallel to tasks.
func (s *Scorer) ScoreAll(tasks []*core.Task, q *core.StructuredQuery, now time.Time) []Breakdown {
	act := ActivationFor(q)
	m := newMatcher(q)
	out := make([]Breakdown, len(tasks))
	for i, t := range tasks {
		out[i] = s.score(t, q, act, m, now)
	}
	return out
}

func (s *Scorer) score(t *core.Task, q *core.StructuredQuery, act Activation, m *keywordMatcher, now time.Time) Breakdown {
	b := Breakdown{Activation: act}
	if t == nil {
		return b
	}

	var rel float64
	rel, b.MatchedCore, b.MatchedAll = m.relevance(t)
	b.Components = Components{
		Relevance: rel,
		DueDate:   DueUrgency(t.Due, now),
		Priority:  PriorityScore(t.Priority),
		Status:    s.glossary.StatusWeight(t.Status),
	}

	b.Weighted = Components{
		Relevance: weigh(b.Components.Relevance, s.coef.Relevance, act.Relevance),
		DueDate:   weigh(b.Components.DueDate, s.coef.DueDate, act.DueDate),
		Priority:  weigh(b.Components.Priority, s.coef.Priority, act.Priority),
		Status:    weigh(b.Components.Status, s.coef.Status, act.Status),
	}
	b.Final = b.Weighted.Sum()
	return b
}

func weigh(v, coef float64, active bool) float64 {
	if !active {
		return 0
	}
	return v * coef
}

// DueUrgency scores a due date: overdue highest, then within a week, within
// a month, later, and no due date lowest.
func DueUrgency(due *time.Time, now time.Time) float64 {
	if due == nil {
		return DueMissing
	}
	days := core.DaysBetween(now, *due)
	switch {
	case days < 0:
		return DueOverdue
	case days <= weekDays:
		return DueThisWeek
	case days <= monthDays:
		return DueThisMonth
	}
	return DueLater
}

// PriorityScore decreases from level 1 downward; unset scores lowest.
func PriorityScore(level int) float64 {
	if v, ok := priorityScores[level]; ok {
		return v
	}
	return PriorityMissing
}

// keywordMatcher holds the lowercase keyword lists of one query.
type keywordMatcher struct {
	core []string
	all  []string
}

func newMatcher(q *core.StructuredQuery) *keywordMatcher {
	if q == nil {
		return &keywordMatcher{}
	}
	return &keywordMatcher{
		core: lowerAll(q.CoreKeywords),
		all:  lowerAll(q.Keywords()),
	}
}

// relevance is coreRatio×0.2 + allRatio×1.0 over case-insensitive substring
// hits in the task text and tags.
func (m *keywordMatcher) relevance(t *core.Task) (float64, int, int) {
	if len(m.all) == 0 {
		return 0, 0, 0
	}
	haystack := searchText(t)
	matchedCore := count(m.core, haystack)
	matchedAll := count(m.all, haystack)

	var coreRatio float64
	if len(m.core) > 0 {
		coreRatio = float64(matchedCore) / float64(len(m.core))
	}
	allRatio := float64(matchedAll) / float64(len(m.all))
	return coreRatio*CoreMatchWeight + allRatio*AllMatchWeight, matchedCore, matchedAll
}

// MatchesAny reports whether t contains at least one keyword of q. A query
// without keywords matches every task.
func MatchesAny(t *core.Task, q *core.StructuredQuery) bool {
	m := newMatcher(q)
	if len(m.all) == 0 {
		return true
	}
	return count(m.all, searchText(t)) > 0
}

func searchText(t *core.Task) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(t.Text))
	for _, tag := range t.Tags {
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(tag))
	}
	return b.String()
}

func count(keywords []string, haystack string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, kw) {
			n++
		}
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

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
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// PriorityFilter constrains task priority. It is either a PriorityLevel or
// PriorityAny; no other implementations exist.
type PriorityFilter interface {
	Matches(priority int) bool
	Shorthand() string
	isPriorityFilter()
}

// PriorityLevel matches tasks with exactly this priority.
type PriorityLevel int

func (p PriorityLevel) Matches(priority int) bool { return int(p) == priority }
func (p PriorityLevel) Shorthand() string        { return fmt.Sprintf("p%d", int(p)) }
func (PriorityLevel) isPriorityFilter()           {}

// PriorityAny matches any task that has a priority set.
type PriorityAny struct{}

func (PriorityAny) Matches(priority int) bool {
	return priority >= PriorityHighest && priority <= PriorityLowest
}
func (PriorityAny) Shorthand() string { return "priority:any" }
func (PriorityAny) isPriorityFilter() {}

// DueFilter constrains the due date. It is either a DueSymbol or a DueRange.
type DueFilter interface {
	Matches(due *time.Time, now time.Time) bool
	Shorthand() string
	isDueFilter()
}

// DueSymbol is a symbolic due-date value resolved relative to "now".
type DueSymbol string

const (
	DueToday     DueSymbol = "today"
	DueTomorrow  DueSymbol = "tomorrow"
	DueYesterday DueSymbol = "yesterday"
	DueOverdue   DueSymbol = "overdue"
	DueThisWeek  DueSymbol = "this-week"
	DueNextWeek  DueSymbol = "next-week"
	DueThisMonth DueSymbol = "this-month"
	DueNextMonth DueSymbol = "next-month"
	DueAny       DueSymbol = "any"
	DueNone      DueSymbol = "none"
)

var dueSymbols = []DueSymbol{
	DueToday, DueTomorrow, DueYesterday, DueOverdue, DueThisWeek,
	DueNextWeek, DueThisMonth, DueNextMonth, DueAny, DueNone,
}

// ParseDueSymbol resolves a symbolic due value. Spaces and underscores are
// accepted in place of hyphens ("this week", "this_week").
func ParseDueSymbol(s string) (DueSymbol, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	for _, sym := range dueSymbols {
		if string(sym) == norm {
			return sym, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDueSymbol, s)
}

// IsRelative reports whether the symbol is a relative time word (as opposed
// to the presence checks "any" and "none").
func (s DueSymbol) IsRelative() bool {
	return s != DueAny && s != DueNone
}

// Period returns the inclusive calendar-day bounds the symbol covers.
// ok is false for symbols without a bounded period (overdue, any, none).
func (s DueSymbol) Period(now time.Time) (first, last time.Time, ok bool) {
	today := StartOfDay(now)
	switch s {
	case DueToday:
		return today, today, true
	case DueTomorrow:
		d := today.AddDate(0, 0, 1)
		return d, d, true
	case DueYesterday:
		d := today.AddDate(0, 0, -1)
		return d, d, true
	case DueThisWeek:
		start := StartOfWeek(now)
		return start, start.AddDate(0, 0, 6), true
	case DueNextWeek:
		start := StartOfWeek(now).AddDate(0, 0, 7)
		return start, start.AddDate(0, 0, 6), true
	case DueThisMonth:
		start := StartOfMonth(now)
		return start, start.AddDate(0, 1, -1), true
	case DueNextMonth:
		start := StartOfMonth(now).AddDate(0, 1, 0)
		return start, start.AddDate(0, 1, -1), true
	}
	return time.Time{}, time.Time{}, false
}

func (s DueSymbol) Matches(due *time.Time, now time.Time) bool {
	switch s {
	case DueAny:
		return due != nil
	case DueNone:
		return due == nil
	}
	if due == nil {
		return false
	}
	today := StartOfDay(now)
	day := DayIn(*due, today.Location())
	if s == DueOverdue {
		return day.Before(today)
	}
	first, last, ok := s.Period(now)
	if !ok {
		return false
	}
	return !day.Before(first) && !day.After(last)
}

func (s DueSymbol) Shorthand() string { return "due:" + string(s) }
func (DueSymbol) isDueFilter()        {}

// Permissive converts a relative symbol into the range used once the query is
// classified as vague: everything due on or before the end of the period,
// overdue tasks included. Presence checks are returned unchanged.
func (s DueSymbol) Permissive(now time.Time) DueFilter {
	switch s {
	case DueAny, DueNone:
		return s
	case DueOverdue:
		return DueRange{Op: RangeBefore, Ref: StartOfDay(now)}
	}
	_, last, ok := s.Period(now)
	if !ok {
		return s
	}
	return DueRange{Op: RangeOnOrBefore, Ref: last}
}

// RangeOp is a comparison operator for DueRange.
type RangeOp string

const (
	RangeBefore     RangeOp = "before"
	RangeOnOrBefore RangeOp = "on-or-before"
	RangeAfter      RangeOp = "after"
	RangeOnOrAfter  RangeOp = "on-or-after"
	RangeOn         RangeOp = "on"
)

// ParseRangeOp accepts operator names and their symbolic forms (<, <=, >, >=).
func ParseRangeOp(s string) (RangeOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before", "<", "lt":
		return RangeBefore, nil
	case "on-or-before", "on_or_before", "by", "<=", "lte":
		return RangeOnOrBefore, nil
	case "after", ">", "gt":
		return RangeAfter, nil
	case "on-or-after", "on_or_after", "from", "since", ">=", "gte":
		return RangeOnOrAfter, nil
	case "on", "=", "==", "eq":
		return RangeOn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRangeOp, s)
}

func (op RangeOp) symbol() string {
	switch op {
	case RangeBefore:
		return "<"
	case RangeOnOrBefore:
		return "<="
	case RangeAfter:
		return ">"
	case RangeOnOrAfter:
		return ">="
	case RangeOn:
		return ""
	}
	return "?"
}

// DueRange matches due dates relative to a reference calendar day.
type DueRange struct {
	Op  RangeOp
	Ref time.Time
}

func (r DueRange) Matches(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	loc := now.Location()
	day := DayIn(*due, loc)
	ref := DayIn(r.Ref, loc)
	switch r.Op {
	case RangeBefore:
		return day.Before(ref)
	case RangeOnOrBefore:
		return !day.After(ref)
	case RangeAfter:
		return day.After(ref)
	case RangeOnOrAfter:
		return !day.Before(ref)
	case RangeOn:
		return day.Equal(ref)
	}
	return false
}

func (r DueRange) Shorthand() string {
	return "due:" + r.Op.symbol() + r.Ref.Format(DateLayout)
}
func (DueRange) isDueFilter() {}

// StatusFilter matches tasks whose status key is one of Keys.
type StatusFilter struct {
	Keys []string
}

func (f *StatusFilter) Matches(status string) bool {
	return slices.Contains(f.Keys, status)
}

// Shorthand renders the filter as "s:key1,key2".
func (f *StatusFilter) Shorthand() string {
	return "s:" + strings.Join(f.Keys, ",")
}

// PropertyFilters are the hard constraints of a query. A nil or empty field
// means the dimension is unconstrained.
type PropertyFilters struct {
	Priority PriorityFilter
	Due      DueFilter
	Status   *StatusFilter
	Tags     []string
	Folder   string
}

// IsEmpty reports whether no property is constrained.
func (f PropertyFilters) IsEmpty() bool {
	return f.Priority == nil && f.Due == nil && f.Status == nil && len(f.Tags) == 0 && f.Folder == ""
}

// Matches re-validates every constraint against a task. Corpora may ignore
// filters they cannot push down, so callers check every candidate.
func (f PropertyFilters) Matches(t *Task, now time.Time) bool {
	if t == nil {
		return false
	}
	if f.Priority != nil && !f.Priority.Matches(t.Priority) {
		return false
	}
	if f.Due != nil && !f.Due.Matches(t.Due, now) {
		return false
	}
	if f.Status != nil && !f.Status.Matches(t.Status) {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if f.Folder != "" && !t.InFolder(f.Folder) {
		return false
	}
	return true
}

// StructuredQuery is the normalized representation of a user query.
type StructuredQuery struct {
	Raw              string
	CoreKeywords     []string
	ExpandedKeywords []string
	Filters          PropertyFilters
	IsVague          bool
	TimeContext      string   // Set only when IsVague and a time word was found
	Confidence       *float64 // Present only on the AI-assisted path
}

// HasKeywords reports whether any keyword constrains relevance.
func (q *StructuredQuery) HasKeywords() bool {
	return len(q.CoreKeywords) > 0 || len(q.ExpandedKeywords) > 0
}

// Keywords returns the expanded keywords, or the core keywords when no
// expansion happened.
func (q *StructuredQuery) Keywords() []string {
	if len(q.ExpandedKeywords) > 0 {
		return q.ExpandedKeywords
	}
	return q.CoreKeywords
}

// Shorthand renders the filters and core keywords in the explicit shorthand
// syntax understood by the rule-based parser.
func (q *StructuredQuery) Shorthand() string {
	var parts []string
	if q.Filters.Priority != nil {
		parts = append(parts, q.Filters.Priority.Shorthand())
	}
	if q.Filters.Due != nil {
		parts = append(parts, q.Filters.Due.Shorthand())
	}
	if q.Filters.Status != nil {
		parts = append(parts, q.Filters.Status.Shorthand())
	}
	for _, tag := range q.Filters.Tags {
		parts = append(parts, "#"+tag)
	}
	if q.Filters.Folder != "" {
		parts = append(parts, "folder:"+q.Filters.Folder)
	}
	parts = append(parts, q.CoreKeywords...)
	return strings.Join(parts, " ")
}

type queryJSON struct {
	Raw              string   `json:"raw"`
	CoreKeywords     []string `json:"coreKeywords"`
	ExpandedKeywords []string `json:"expandedKeywords"`
	Priority         string   `json:"priorityFilter,omitempty"`
	Due              string   `json:"dueDateFilter,omitempty"`
	Status           []string `json:"statusFilter,omitempty"`
	Tags             []string `json:"tagsFilter,omitempty"`
	Folder           string   `json:"folderFilter,omitempty"`
	IsVague          bool     `json:"isVague"`
	TimeContext      string   `json:"timeContext,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// MarshalJSON renders filters in their shorthand form.
func (q *StructuredQuery) MarshalJSON() ([]byte, error) {
	out := queryJSON{
		Raw:              q.Raw,
		CoreKeywords:     nonNil(q.CoreKeywords),
		ExpandedKeywords: nonNil(q.ExpandedKeywords),
		Tags:             q.Filters.Tags,
		Folder:           q.Filters.Folder,
		IsVague:          q.IsVague,
		TimeContext:      q.TimeContext,
		Confidence:       q.Confidence,
	}
	if q.Filters.Priority != nil {
		out.Priority = q.Filters.Priority.Shorthand()
	}
	if q.Filters.Due != nil {
		out.Due = q.Filters.Due.Shorthand()
	}
	if q.Filters.Status != nil {
		out.Status = q.Filters.Status.Keys
	}
	return json.Marshal(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

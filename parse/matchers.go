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

package parse

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/vague"
)

// MatchKind names what a matcher recognizes.
type MatchKind string

const (
	MatchConnector MatchKind = "connector"
	MatchPriority  MatchKind = "priority"
	MatchStatus    MatchKind = "status"
	MatchDue       MatchKind = "due"
	MatchTag       MatchKind = "tag"
	MatchFolder    MatchKind = "folder"
)

// Match is one recognized span. Only the fields for its Kind are set.
type Match struct {
	Kind      MatchKind
	Tokens    Tokens
	Connector string
	Priority  core.PriorityFilter
	Due       core.DueFilter
	// TimeWord is set when Due came from a bare relative time phrase.
	TimeWord string
	Status   []string
	Tags     []string
	Folder   string
}

// Matcher recognizes one kind of shorthand. Match finds the first span it
// recognizes and returns it with the remaining tokens; the input is never
// modified.
type Matcher struct {
	Kind MatchKind
	at   func(ts Tokens, i int, now time.Time) (Match, int, bool)
}

// Match scans ts from the left and returns the first match.
func (m Matcher) Match(ts Tokens, now time.Time) (Match, Tokens, bool) {
	for i := range ts {
		match, n, ok := m.at(ts, i, now)
		if !ok || n <= 0 {
			continue
		}
		match.Kind = m.Kind
		match.Tokens = slices.Clone(ts[i : i+n])
		return match, ts.without(i, i+n), true
	}
	return Match{}, ts, false
}

// rules holds the read-only vocabulary the matchers consult.
type rules struct {
	glossary  *glossary.Glossary
	vocab     *vague.Vocabulary
	timeWords []vague.TimeWord
}

// matchers returns the chain in application order.
func (r *rules) matchers() []Matcher {
	return []Matcher{
		{Kind: MatchConnector, at: r.connectorAt},
		{Kind: MatchPriority, at: r.priorityAt},
		{Kind: MatchStatus, at: r.statusAt},
		{Kind: MatchDue, at: r.dueAt},
		{Kind: MatchTag, at: r.tagAt},
		{Kind: MatchFolder, at: r.folderAt},
	}
}

var connectors = map[string]bool{
	"and": true, "or": true, "&": true, "&&": true, "|": true, "||": true,
	"und": true, "oder": true, "y": true, "o": true, "和": true, "或": true, "或者": true,
}

func (r *rules) connectorAt(ts Tokens, i int, _ time.Time) (Match, int, bool) {
	if connectors[ts[i].Lower] {
		return Match{Connector: ts[i].Lower}, 1, true
	}
	return Match{}, 0, false
}

// priority

var priorityWords = []string{"priority", "prio"}

func (r *rules) priorityAt(ts Tokens, i int, _ time.Time) (Match, int, bool) {
	w := ts[i].Lower

	if level, ok := priorityKey(w); ok {
		return Match{Priority: core.PriorityLevel(level)}, 1, true
	}
	for _, prefix := range []string{"priority:", "prio:", "p:"} {
		if v, ok := strings.CutPrefix(w, prefix); ok {
			if f, ok := r.priorityValue(v); ok {
				return Match{Priority: f}, 1, true
			}
			return Match{}, 0, false
		}
	}
	if slices.Contains(priorityWords, w) {
		if i+1 < len(ts) {
			if f, ok := r.priorityValue(ts[i+1].Lower); ok {
				return Match{Priority: f}, 2, true
			}
		}
		// A bare "priority" inside a sentence is a topic word, not a filter.
		if i == len(ts)-1 {
			return Match{Priority: core.PriorityAny{}}, 1, true
		}
		return Match{}, 0, false
	}
	if (w == "has" || w == "with") && i+1 < len(ts) && slices.Contains(priorityWords, ts[i+1].Lower) {
		return Match{Priority: core.PriorityAny{}}, 2, true
	}

	if key, ok := r.glossary.Markers(glossary.KindPriority)[ts[i].Text]; ok {
		if level, ok := r.glossary.ResolvePriority(key); ok {
			return Match{Priority: core.PriorityLevel(level)}, 1, true
		}
	}
	for _, term := range r.glossary.Terms(glossary.KindPriority) {
		if !ts.hasWords(i, term.Words) || term.Level == core.PriorityNone {
			continue
		}
		n := len(term.Words)
		if i+n < len(ts) && slices.Contains(priorityWords, ts[i+n].Lower) {
			n++
		}
		return Match{Priority: core.PriorityLevel(term.Level)}, n, true
	}
	return Match{}, 0, false
}

// priorityKey parses standalone shorthand such as "p1".
func priorityKey(w string) (int, bool) {
	if len(w) != 2 || w[0] != 'p' || w[1] < '0' || w[1] > '9' {
		return 0, false
	}
	level := int(w[1] - '0')
	return level, core.ValidatePriority(level) == nil
}

// priorityValue resolves "any", a level number, or a glossary term.
func (r *rules) priorityValue(v string) (core.PriorityFilter, bool) {
	v = strings.Trim(v, edgePunct)
	if v == "any" || v == "yes" {
		return core.PriorityAny{}, true
	}
	if n, err := strconv.Atoi(v); err == nil {
		if core.ValidatePriority(n) == nil && n != core.PriorityNone {
			return core.PriorityLevel(n), true
		}
		return nil, false
	}
	if level, ok := r.glossary.ResolvePriority(v); ok {
		return core.PriorityLevel(level), true
	}
	return nil, false
}

// status

func (r *rules) statusAt(ts Tokens, i int, _ time.Time) (Match, int, bool) {
	tok := ts[i]

	for _, prefix := range []string{"status:", "s:"} {
		if v, ok := cutPrefixFold(tok.Text, prefix); ok {
			if keys := r.statusValues(v); len(keys) > 0 {
				return Match{Status: keys}, 1, true
			}
			return Match{}, 0, false
		}
	}
	if tok.Lower == "status" && i+1 < len(ts) {
		if keys := r.statusValues(ts[i+1].Text); len(keys) > 0 {
			return Match{Status: keys}, 2, true
		}
	}
	if isBracketMarker(tok.Text) {
		marker := tok.Text[1 : len(tok.Text)-1]
		if c, ok := r.glossary.Resolve(glossary.KindStatus, marker); ok {
			return Match{Status: []string{c.Key}}, 1, true
		}
	}

	for _, term := range r.glossary.Terms(glossary.KindStatus) {
		// "todo" is how people say "task"; it is not a status filter on its own.
		if len(term.Words) == 1 && r.vocab.IsGeneric(term.Text) {
			continue
		}
		if ts.hasWords(i, term.Words) {
			return Match{Status: []string{term.Key}}, len(term.Words), true
		}
	}
	return Match{}, 0, false
}

// statusValues resolves a comma separated list of keys, aliases or markers.
func (r *rules) statusValues(list string) []string {
	var keys []string
	for _, v := range strings.Split(list, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if key, ok := r.glossary.ResolveStatus(v); ok && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// due

var rangeWords = map[string]core.RangeOp{
	"before": core.RangeBefore,
	"by":     core.RangeOnOrBefore,
	"until":  core.RangeOnOrBefore,
	"till":   core.RangeOnOrBefore,
	"after":  core.RangeAfter,
	"since":  core.RangeOnOrAfter,
}

// dueOnlyRangeWords are operators that only read as dates after "due".
var dueOnlyRangeWords = map[string]core.RangeOp{
	"on":   core.RangeOn,
	"from": core.RangeOnOrAfter,
}

var dueSymbolAliases = map[string]core.DueSymbol{
	"week":  core.DueThisWeek,
	"month": core.DueThisMonth,
	"od":    core.DueOverdue,
	"no":    core.DueNone,
	"has":   core.DueAny,
	"yes":   core.DueAny,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (r *rules) dueAt(ts Tokens, i int, now time.Time) (Match, int, bool) {
	w := ts[i].Lower

	if v, ok := strings.CutPrefix(w, "due:"); ok {
		if f, ok := r.dueExpr(v, now); ok {
			return Match{Due: f}, 1, true
		}
		return Match{}, 0, false
	}

	if (w == "no" || w == "without") && ts.hasWords(i+1, []string{"due"}) {
		n := 2
		if ts.hasWords(i+2, []string{"date"}) {
			n = 3
		}
		return Match{Due: core.DueNone}, n, true
	}
	if (w == "has" || w == "with") && ts.hasWords(i+1, []string{"due", "date"}) {
		return Match{Due: core.DueAny}, 3, true
	}

	if w == "due" || w == "deadline" {
		if i+1 >= len(ts) {
			return Match{}, 0, false
		}
		next := ts[i+1].Lower
		op, isOp := rangeWords[next]
		if !isOp {
			op, isOp = dueOnlyRangeWords[next]
		}
		if isOp {
			if ref, n, ok := r.refAt(ts, i+2, op, now); ok {
				return Match{Due: core.DueRange{Op: op, Ref: ref}}, 2 + n, true
			}
		}
		if sym, n, ok := r.timeWordAt(ts, i+1); ok {
			return Match{Due: sym}, 1 + n, true
		}
		if d, ok := dateWord(next, now); ok {
			return Match{Due: core.DueRange{Op: core.RangeOn, Ref: d}}, 2, true
		}
		if days, n, ok := dayCountAt(ts, i+1); ok {
			return Match{Due: withinDays(days, now)}, 1 + n, true
		}
		return Match{}, 0, false
	}

	if w == "next" || w == "within" || w == "in" {
		if days, n, ok := dayCountAt(ts, i+1); ok {
			return Match{Due: withinDays(days, now)}, 1 + n, true
		}
	}

	if op, ok := rangeWords[w]; ok {
		if ref, n, ok := r.refAt(ts, i+1, op, now); ok {
			return Match{Due: core.DueRange{Op: op, Ref: ref}}, 1 + n, true
		}
	}

	if sym, n, ok := r.timeWordAt(ts, i); ok {
		return Match{Due: sym, TimeWord: joinText(ts[i : i+n])}, n, true
	}

	if d, err := core.ParseDate(w, now.Location()); err == nil {
		return Match{Due: core.DueRange{Op: core.RangeOn, Ref: d}}, 1, true
	}
	return Match{}, 0, false
}

// dueExpr parses the value of "due:" shorthand.
func (r *rules) dueExpr(v string, now time.Time) (core.DueFilter, bool) {
	v = strings.TrimRight(v, ",;.")
	for _, prefix := range []string{"<=", ">=", "<", ">", "="} {
		rest, ok := strings.CutPrefix(v, prefix)
		if !ok {
			continue
		}
		op, err := core.ParseRangeOp(prefix)
		if err != nil {
			return nil, false
		}
		ref, ok := r.refWord(rest, op, now)
		if !ok {
			return nil, false
		}
		return core.DueRange{Op: op, Ref: ref}, true
	}

	if sym, ok := dueSymbolAliases[v]; ok {
		return sym, true
	}
	if sym, err := core.ParseDueSymbol(v); err == nil {
		return sym, true
	}
	if d, ok := dateWord(v, now); ok {
		return core.DueRange{Op: core.RangeOn, Ref: d}, true
	}
	return nil, false
}

// refAt reads a reference day starting at token i: an ISO date, a weekday,
// or a relative time phrase.
func (r *rules) refAt(ts Tokens, i int, op core.RangeOp, now time.Time) (time.Time, int, bool) {
	if i >= len(ts) {
		return time.Time{}, 0, false
	}
	if sym, n, ok := r.timeWordAt(ts, i); ok {
		if ref, ok := periodRef(sym, op, now); ok {
			return ref, n, true
		}
		return time.Time{}, 0, false
	}
	if d, ok := dateWord(ts[i].Lower, now); ok {
		return d, 1, true
	}
	return time.Time{}, 0, false
}

// refWord is refAt for a single shorthand word such as "today" or
// "this-week".
func (r *rules) refWord(v string, op core.RangeOp, now time.Time) (time.Time, bool) {
	if d, ok := dateWord(v, now); ok {
		return d, true
	}
	sym, ok := dueSymbolAliases[v]
	if !ok {
		var err error
		if sym, err = core.ParseDueSymbol(v); err != nil {
			return time.Time{}, false
		}
	}
	return periodRef(sym, op, now)
}

// periodRef picks the edge of a period that keeps the operator's meaning:
// "before next week" is before its first day, "by next week" is on or
// before its last day.
func periodRef(sym core.DueSymbol, op core.RangeOp, now time.Time) (time.Time, bool) {
	first, last, ok := sym.Period(now)
	if !ok {
		return time.Time{}, false
	}
	switch op {
	case core.RangeOnOrBefore, core.RangeAfter:
		return last, true
	}
	return first, true
}

// timeWordAt matches the longest relative time phrase starting at i.
func (r *rules) timeWordAt(ts Tokens, i int) (core.DueSymbol, int, bool) {
	for _, tw := range r.timeWords {
		if ts.hasWords(i, tw.Words) {
			return tw.Symbol, len(tw.Words), true
		}
	}
	return "", 0, false
}

// dateWord parses an ISO date or a weekday name. Weekdays resolve to the
// next occurrence, today included.
func dateWord(w string, now time.Time) (time.Time, bool) {
	w = strings.Trim(w, edgePunct)
	if d, err := core.ParseDate(w, now.Location()); err == nil {
		return d, true
	}
	if wd, ok := weekdays[w]; ok {
		today := core.StartOfDay(now)
		offset := (int(wd) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, offset), true
	}
	return time.Time{}, false
}

// dayCountAt matches "N days" or "N weeks".
func dayCountAt(ts Tokens, i int) (int, int, bool) {
	if i+1 >= len(ts) {
		return 0, 0, false
	}
	n, err := strconv.Atoi(ts[i].Lower)
	if err != nil || n <= 0 || n > 366 {
		return 0, 0, false
	}
	switch ts[i+1].Lower {
	case "day", "days":
		return n, 2, true
	case "week", "weeks":
		return n * 7, 2, true
	}
	return 0, 0, false
}

func withinDays(days int, now time.Time) core.DueFilter {
	return core.DueRange{Op: core.RangeOnOrBefore, Ref: core.StartOfDay(now).AddDate(0, 0, days)}
}

func joinText(ts Tokens) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Lower
	}
	return strings.Join(parts, " ")
}

// tags and folders

func (r *rules) tagAt(ts Tokens, i int, _ time.Time) (Match, int, bool) {
	w := ts[i].Text
	if strings.HasPrefix(w, "#") {
		tag := core.NormalizeTag(strings.TrimRight(w, ",;.!?"))
		if tag != "" {
			return Match{Tags: []string{tag}}, 1, true
		}
		return Match{}, 0, false
	}
	for _, prefix := range []string{"tag:", "tags:"} {
		if v, ok := cutPrefixFold(w, prefix); ok {
			var tags []string
			for _, t := range strings.Split(v, ",") {
				if t = core.NormalizeTag(t); t != "" && !slices.Contains(tags, t) {
					tags = append(tags, t)
				}
			}
			if len(tags) > 0 {
				return Match{Tags: tags}, 1, true
			}
		}
	}
	return Match{}, 0, false
}

func (r *rules) folderAt(ts Tokens, i int, _ time.Time) (Match, int, bool) {
	for _, prefix := range []string{"folder:", "in:", "path:"} {
		if v, ok := cutPrefixFold(ts[i].Text, prefix); ok {
			folder := core.NormalizeFolder(strings.Trim(v, "\"'"))
			if folder != "" {
				return Match{Folder: folder}, 1, true
			}
		}
	}
	return Match{}, 0, false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

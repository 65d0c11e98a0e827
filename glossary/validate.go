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

package glossary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Issue codes reported by Validate.
const (
	IssueEmptyKey         = "empty-key"
	IssueDuplicateKey     = "duplicate-key"
	IssueUnknownKind      = "unknown-kind"
	IssueWeightRange      = "weight-out-of-range"
	IssuePositionConflict = "position-conflict"
	IssuePriorityLevel    = "priority-level"
	IssueAliasConflict    = "alias-conflict"
	IssueMarkerConflict   = "marker-conflict"
)

// PositionGap is the spacing Repair uses when renumbering sort positions.
const PositionGap = 10

// Issue is one violated invariant. Keys names every category involved.
type Issue struct {
	Code    string
	Keys    []string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.Code, strings.Join(i.Keys, ", "), i.Message)
}

// ValidationError lists every issue found in a glossary.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidGlossary, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGlossary
}

// Has reports whether an issue with the given code was found.
func (e *ValidationError) Has(code string) bool {
	for _, issue := range e.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// Validate checks every glossary invariant and returns a *ValidationError
// listing all violations, or nil.
func (g *Glossary) Validate() error {
	issues := validateCategories(g.categories)
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func validateCategories(categories []Category) []Issue {
	var issues []Issue
	seenKeys := map[string]string{}
	positions := map[int][]string{}
	levels := map[int][]string{}
	aliasOwner := map[Kind]map[string]string{KindStatus: {}, KindPriority: {}}
	markerOwner := map[Kind]map[string]string{KindStatus: {}, KindPriority: {}}

	for _, c := range categories {
		if strings.TrimSpace(c.Key) == "" {
			issues = append(issues, Issue{Code: IssueEmptyKey, Message: "category key cannot be empty"})
			continue
		}
		lower := strings.ToLower(c.Key)
		if first, dup := seenKeys[lower]; dup {
			issues = append(issues, Issue{Code: IssueDuplicateKey, Keys: []string{first, c.Key}, Message: "category keys must be unique"})
		} else {
			seenKeys[lower] = c.Key
		}

		if c.Kind != KindStatus && c.Kind != KindPriority {
			issues = append(issues, Issue{Code: IssueUnknownKind, Keys: []string{c.Key}, Message: fmt.Sprintf("unknown kind %q", c.Kind)})
			continue
		}

		if math.IsNaN(c.Weight) || c.Weight < 0 || c.Weight > 1 {
			issues = append(issues, Issue{Code: IssueWeightRange, Keys: []string{c.Key}, Message: fmt.Sprintf("weight %v not in [0,1]", c.Weight)})
		}

		switch c.Kind {
		case KindStatus:
			if c.Position != nil {
				positions[*c.Position] = append(positions[*c.Position], c.Key)
			}
		case KindPriority:
			if c.Level < 1 || c.Level > 4 {
				issues = append(issues, Issue{Code: IssuePriorityLevel, Keys: []string{c.Key}, Message: fmt.Sprintf("level %d not in 1..4", c.Level)})
			} else {
				levels[c.Level] = append(levels[c.Level], c.Key)
			}
		}

		for _, a := range c.Aliases {
			a = normalizeTerm(a)
			if a == "" {
				continue
			}
			if owner, dup := aliasOwner[c.Kind][a]; dup && owner != c.Key {
				issues = append(issues, Issue{Code: IssueAliasConflict, Keys: []string{owner, c.Key}, Message: fmt.Sprintf("alias %q is claimed twice", a)})
			} else {
				aliasOwner[c.Kind][a] = c.Key
			}
		}
		for _, m := range c.Markers {
			if owner, dup := markerOwner[c.Kind][m]; dup && owner != c.Key {
				issues = append(issues, Issue{Code: IssueMarkerConflict, Keys: []string{owner, c.Key}, Message: fmt.Sprintf("marker %q is claimed twice", m)})
			} else {
				markerOwner[c.Kind][m] = c.Key
			}
		}
	}

	for _, pos := range sortedKeys(positions) {
		if keys := positions[pos]; len(keys) > 1 {
			issues = append(issues, Issue{Code: IssuePositionConflict, Keys: keys, Message: fmt.Sprintf("sort position %d is declared %d times", pos, len(keys))})
		}
	}
	for _, level := range sortedKeys(levels) {
		if keys := levels[level]; len(keys) > 1 {
			issues = append(issues, Issue{Code: IssuePriorityLevel, Keys: keys, Message: fmt.Sprintf("priority level %d is declared %d times", level, len(keys))})
		}
	}
	return issues
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Change records one field rewritten by Repair.
type Change struct {
	Key   string
	Field string
	From  string
	To    string
}

func (c Change) String() string {
	return fmt.Sprintf("%s.%s: %s -> %s", c.Key, c.Field, c.From, c.To)
}

// RepairReport lists the changes Repair made. An empty report means the
// glossary was already valid for every repairable invariant.
type RepairReport struct {
	Changes []Change
}

// Changed reports whether Repair rewrote anything.
func (r *RepairReport) Changed() bool {
	return r != nil && len(r.Changes) > 0
}

// Repair returns a new glossary with the repairable invariants fixed:
//   - conflicting explicit sort positions are renumbered to 10, 20, 30, ...
//     in (old position, declaration order) order
//   - weights outside [0,1] are clamped, NaN becomes NeutralWeight
//
// The receiver is not modified. Issues Repair cannot fix (duplicate keys,
// unknown kinds) are returned as a *ValidationError alongside the result.
func (g *Glossary) Repair() (*Glossary, *RepairReport, error) {
	categories := g.Categories()
	report := &RepairReport{}

	for i := range categories {
		c := &categories[i]
		var w float64
		switch {
		case math.IsNaN(c.Weight):
			w = NeutralWeight
		case c.Weight < 0:
			w = 0
		case c.Weight > 1:
			w = 1
		default:
			continue
		}
		report.Changes = append(report.Changes, Change{Key: c.Key, Field: "weight", From: formatFloat(c.Weight), To: formatFloat(w)})
		c.Weight = w
	}

	if hasPositionConflict(categories) {
		renumberPositions(categories, report)
	}

	repaired := New(categories)
	if err := repaired.Validate(); err != nil {
		return repaired, report, err
	}
	return repaired, report, nil
}

func hasPositionConflict(categories []Category) bool {
	seen := map[int]bool{}
	for _, c := range categories {
		if c.Kind != KindStatus || c.Position == nil {
			continue
		}
		if seen[*c.Position] {
			return true
		}
		seen[*c.Position] = true
	}
	return false
}

func renumberPositions(categories []Category, report *RepairReport) {
	var idx []int
	for i, c := range categories {
		if c.Kind == KindStatus && c.Position != nil {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return *categories[idx[a]].Position < *categories[idx[b]].Position
	})
	for n, i := range idx {
		c := &categories[i]
		want := (n + 1) * PositionGap
		if *c.Position == want {
			continue
		}
		report.Changes = append(report.Changes, Change{Key: c.Key, Field: "position", From: strconv.Itoa(*c.Position), To: strconv.Itoa(want)})
		c.Position = &want
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

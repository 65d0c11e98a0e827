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
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/vague"
)

// fromDraft validates a model draft against the glossary and value bounds
// and converts it to a structured query. Any violation is a
// malformed-response failure. Tags and folder shorthand the model missed
// are taken from the rule analysis.
func (p *Parser) fromDraft(raw string, d *ai.Draft, analysis *Analysis, now time.Time) (*core.StructuredQuery, error) {
	if d.Confidence == nil {
		return nil, invalidDraft("confidence is missing")
	}

	filters := core.PropertyFilters{}

	if d.Priority != nil {
		switch {
		case d.Priority.Any:
			filters.Priority = core.PriorityAny{}
		case core.ValidatePriority(d.Priority.Level) == nil:
			filters.Priority = core.PriorityLevel(d.Priority.Level)
		default:
			return nil, invalidDraft("priority %d out of range", d.Priority.Level)
		}
	}

	if d.Due != nil {
		due, err := dueFromDraft(d.Due, now)
		if err != nil {
			return nil, err
		}
		filters.Due = due
	}

	if len(d.Status) > 0 {
		filters.Status = &core.StatusFilter{}
		for _, s := range d.Status {
			key, ok := p.glossary.ResolveStatus(strings.TrimSpace(s))
			if !ok {
				return nil, invalidDraft("unknown status %q", s)
			}
			if !slices.Contains(filters.Status.Keys, key) {
				filters.Status.Keys = append(filters.Status.Keys, key)
			}
		}
	}

	for _, tag := range d.Tags {
		if tag = core.NormalizeTag(tag); tag != "" && !slices.Contains(filters.Tags, tag) {
			filters.Tags = append(filters.Tags, tag)
		}
	}
	filters.Folder = core.NormalizeFolder(d.Folder)

	ruleFilters := analysis.Query.Filters
	if len(filters.Tags) == 0 {
		filters.Tags = slices.Clone(ruleFilters.Tags)
	}
	if filters.Folder == "" {
		filters.Folder = ruleFilters.Folder
	}

	res := p.rules.classifier.Classify(vague.Input{
		Tokens:       contentWords(analysis.Remainder),
		Threshold:    p.config.VaguenessThreshold,
		Due:          filters.Due,
		TimeWord:     timeWordFor(analysis, filters.Due),
		OtherFilters: hasOtherFilters(filters),
		Hint:         d.IsVague,
		Now:          now,
	})
	filters.Due = res.Due

	keywords := p.draftKeywords(d.CoreKeywords)
	return &core.StructuredQuery{
		Raw:              raw,
		CoreKeywords:     keywords,
		ExpandedKeywords: slices.Clone(keywords),
		Filters:          filters,
		IsVague:          res.IsVague,
		TimeContext:      res.TimeContext,
	}, nil
}

func dueFromDraft(v *ai.DueValue, now time.Time) (core.DueFilter, error) {
	if v.Symbol != "" {
		if sym, ok := dueSymbolAliases[strings.ToLower(v.Symbol)]; ok {
			return sym, nil
		}
		sym, err := core.ParseDueSymbol(v.Symbol)
		if err != nil {
			return nil, invalidDraft("%v", err)
		}
		return sym, nil
	}
	op, err := core.ParseRangeOp(v.Operator)
	if err != nil {
		return nil, invalidDraft("%v", err)
	}
	ref, err := core.ParseDate(strings.TrimSpace(v.Date), now.Location())
	if err != nil {
		return nil, invalidDraft("due date %q is not YYYY-MM-DD", v.Date)
	}
	return core.DueRange{Op: op, Ref: ref}, nil
}

// timeWordFor returns the bare time phrase the rule analysis saw for the
// same due symbol, so a model answer gets the same vagueness treatment.
func timeWordFor(a *Analysis, due core.DueFilter) string {
	sym, ok := due.(core.DueSymbol)
	if !ok {
		return ""
	}
	for _, m := range a.Matches {
		if m.Kind != MatchDue || m.TimeWord == "" {
			continue
		}
		if s, ok := m.Due.(core.DueSymbol); ok && s == sym {
			return m.TimeWord
		}
	}
	return ""
}

// draftKeywords lowercases, trims and dedupes model keywords and drops
// generic words.
func (p *Parser) draftKeywords(in []string) []string {
	vocab := p.rules.classifier.Vocabulary()
	out := []string{}
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || vocab.IsGeneric(kw) || slices.Contains(out, kw) {
			continue
		}
		out = append(out, kw)
	}
	return out
}

func invalidDraft(format string, args ...any) error {
	return &ai.Failure{
		Category: ai.FailureMalformedResponse,
		Err:      fmt.Errorf("%w: %w: "+format, append([]any{ai.ErrMalformedResponse, ErrInvalidDraft}, args...)...),
	}
}

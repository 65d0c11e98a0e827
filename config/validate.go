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

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func fraction(v float64) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(v)
}

// Validate checks the configuration and returns a *ValidationError listing
// every problem, or nil. It never modifies c; see Repair.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Languages) == 0 {
		add("at least one language is required")
	}
	seenLang := map[string]bool{}
	for _, lang := range c.Languages {
		l := strings.ToLower(strings.TrimSpace(lang))
		if l == "" {
			add("language code cannot be empty")
			continue
		}
		if seenLang[l] {
			add("language %q listed twice", lang)
		}
		seenLang[l] = true
	}

	for _, nv := range c.Coefficients.named() {
		if !positive(nv.value) {
			add("coefficient %s must be a positive number, got %v", nv.name, nv.value)
		}
	}

	if c.ExpansionsPerLanguage < 0 {
		add("expansionsPerLanguage cannot be negative, got %d", c.ExpansionsPerLanguage)
	}
	if !fraction(c.VaguenessThreshold) || c.VaguenessThreshold == 0 {
		add("vaguenessThreshold must be in (0,1], got %v", c.VaguenessThreshold)
	}
	if !fraction(c.ConfidenceThreshold) {
		add("confidenceThreshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.MaxDirectResults <= 0 {
		add("maxDirectResults must be positive, got %d", c.MaxDirectResults)
	}
	if c.MaxSummaryResults <= 0 {
		add("maxSummaryResults must be positive, got %d", c.MaxSummaryResults)
	}
	if c.AITimeout <= 0 && !c.DisableAI {
		add("aiTimeout must be positive, got %s", c.AITimeout)
	}

	seen := map[Criterion]bool{}
	for _, crit := range c.TieBreak {
		switch {
		case crit == ByRelevance:
			add("relevance is not a valid tie-break criterion")
		case !crit.valid():
			add("unknown tie-break criterion %q", crit)
		case seen[crit]:
			add("tie-break criterion %q listed twice", crit)
		}
		seen[crit] = true
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

type namedValue struct {
	name  string
	value float64
}

// named returns the coefficients in a fixed order for reporting.
func (c Coefficients) named() []namedValue {
	return []namedValue{
		{"relevance", c.Relevance},
		{"dueDate", c.DueDate},
		{"priority", c.Priority},
		{"status", c.Status},
	}
}

// Change records one setting rewritten by Repair.
type Change struct {
	Field string
	From  string
	To    string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, c.From, c.To)
}

// Repair returns a corrected copy of c and the list of changes made.
// Invalid values are replaced by their defaults and invalid tie-break
// criteria are dropped. The receiver is left untouched; callers decide
// whether to adopt the result.
func (c *Config) Repair() (*Config, []Change) {
	out := c.Clone()
	def := DefaultConfig()
	var changes []Change
	record := func(field, from, to string) {
		changes = append(changes, Change{Field: field, From: from, To: to})
	}

	var langs []string
	seenLang := map[string]bool{}
	for _, lang := range out.Languages {
		l := strings.ToLower(strings.TrimSpace(lang))
		if l == "" || seenLang[l] {
			continue
		}
		seenLang[l] = true
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		langs = def.Languages
	}
	if strings.Join(langs, ",") != strings.Join(out.Languages, ",") {
		record("languages", strings.Join(out.Languages, ","), strings.Join(langs, ","))
		out.Languages = langs
	}

	fixCoef := func(name string, v *float64, d float64) {
		if !positive(*v) {
			record("coefficients."+name, fmtFloat(*v), fmtFloat(d))
			*v = d
		}
	}
	fixCoef("relevance", &out.Coefficients.Relevance, def.Coefficients.Relevance)
	fixCoef("dueDate", &out.Coefficients.DueDate, def.Coefficients.DueDate)
	fixCoef("priority", &out.Coefficients.Priority, def.Coefficients.Priority)
	fixCoef("status", &out.Coefficients.Status, def.Coefficients.Status)

	if out.ExpansionsPerLanguage < 0 {
		record("expansionsPerLanguage", strconv.Itoa(out.ExpansionsPerLanguage), strconv.Itoa(def.ExpansionsPerLanguage))
		out.ExpansionsPerLanguage = def.ExpansionsPerLanguage
	}
	if !fraction(out.VaguenessThreshold) || out.VaguenessThreshold == 0 {
		record("vaguenessThreshold", fmtFloat(out.VaguenessThreshold), fmtFloat(def.VaguenessThreshold))
		out.VaguenessThreshold = def.VaguenessThreshold
	}
	if !fraction(out.ConfidenceThreshold) {
		record("confidenceThreshold", fmtFloat(out.ConfidenceThreshold), fmtFloat(def.ConfidenceThreshold))
		out.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if out.MaxDirectResults <= 0 {
		record("maxDirectResults", strconv.Itoa(out.MaxDirectResults), strconv.Itoa(def.MaxDirectResults))
		out.MaxDirectResults = def.MaxDirectResults
	}
	if out.MaxSummaryResults <= 0 {
		record("maxSummaryResults", strconv.Itoa(out.MaxSummaryResults), strconv.Itoa(def.MaxSummaryResults))
		out.MaxSummaryResults = def.MaxSummaryResults
	}
	if out.AITimeout <= 0 && !out.DisableAI {
		record("aiTimeout", out.AITimeout.String(), def.AITimeout.String())
		out.AITimeout = def.AITimeout
	}

	var criteria []Criterion
	seen := map[Criterion]bool{}
	for _, crit := range out.TieBreak {
		if !crit.valid() || seen[crit] {
			record("tieBreak", string(crit), "(removed)")
			continue
		}
		seen[crit] = true
		criteria = append(criteria, crit)
	}
	out.TieBreak = criteria

	return out, changes
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

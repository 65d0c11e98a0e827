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
	"slices"
	"strings"
	"time"
)

// Criterion names a secondary sort key applied to score ties.
type Criterion string

const (
	ByDueDate      Criterion = "due-date"
	ByPriority     Criterion = "priority"
	ByStatus       Criterion = "status"
	ByCreated      Criterion = "created"
	ByAlphabetical Criterion = "alphabetical"

	// ByRelevance is recognized only so validation can reject it by name;
	// relevance is already folded into the score.
	ByRelevance Criterion = "relevance"
)

// ParseCriterion accepts the canonical names plus a few spellings seen in
// hand-written config ("dueDate", "due_date", "alpha").
func ParseCriterion(s string) Criterion {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "due-date", "duedate", "due":
		return ByDueDate
	case "priority":
		return ByPriority
	case "status":
		return ByStatus
	case "created", "created-date", "createddate", "creation":
		return ByCreated
	case "alphabetical", "alpha", "text":
		return ByAlphabetical
	case "relevance":
		return ByRelevance
	}
	return Criterion(norm)
}

func (c Criterion) valid() bool {
	switch c {
	case ByDueDate, ByPriority, ByStatus, ByCreated, ByAlphabetical:
		return true
	}
	return false
}

// Coefficients weight the four scoring dimensions. Each must be finite and
// positive; a dimension is switched off per query by its activation flag,
// never by a zero coefficient.
type Coefficients struct {
	Relevance float64 `yaml:"relevance"`
	DueDate   float64 `yaml:"dueDate"`
	Priority  float64 `yaml:"priority"`
	Status    float64 `yaml:"status"`
}

// DefaultCoefficients returns relevance 20, due date 4, priority 1, status 1.
func DefaultCoefficients() Coefficients {
	return Coefficients{Relevance: 20, DueDate: 4, Priority: 1, Status: 1}
}

// Config holds the query interpretation and ranking settings. Treat a Config
// as immutable once it has been handed to a searcher.
type Config struct {
	// Languages lists the query languages, e.g. "en", "zh".
	// Default: ["en"]
	Languages []string `yaml:"languages"`

	Coefficients Coefficients `yaml:"coefficients"`

	// ExpansionsPerLanguage bounds semantic equivalents per core keyword per
	// language. The per-keyword cap is ExpansionsPerLanguage × len(Languages).
	// Default: 5
	ExpansionsPerLanguage int `yaml:"expansionsPerLanguage"`

	// VaguenessThreshold is the generic-token ratio at or above which a query
	// is vague.
	// Default: 0.7
	VaguenessThreshold float64 `yaml:"vaguenessThreshold"`

	// ConfidenceThreshold is the AI confidence below which the rule-based
	// parser is used instead. Tune per deployment.
	// Default: 0.7
	ConfidenceThreshold float64 `yaml:"confidenceThreshold"`

	// MaxDirectResults caps results shown directly to the user.
	// Default: 20
	MaxDirectResults int `yaml:"maxDirectResults"`

	// MaxSummaryResults caps results handed to a downstream summarizer.
	// Default: 100
	MaxSummaryResults int `yaml:"maxSummaryResults"`

	// TieBreak orders tasks whose scores tie.
	// Default: due-date, priority, status, created, alphabetical
	TieBreak []Criterion `yaml:"tieBreak"`

	// AITimeout bounds one AI-assisted parse including its single retry.
	// Default: 8s
	AITimeout time.Duration `yaml:"aiTimeout"`

	// DisableAI skips the language assist service entirely.
	DisableAI bool `yaml:"disableAI"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithLanguages sets the configured query languages.
func WithLanguages(langs ...string) ConfigOption {
	return func(c *Config) {
		c.Languages = slices.Clone(langs)
	}
}

// WithCoefficients sets the scoring coefficients.
func WithCoefficients(coef Coefficients) ConfigOption {
	return func(c *Config) {
		c.Coefficients = coef
	}
}

// WithExpansionsPerLanguage sets the per-language expansion breadth.
func WithExpansionsPerLanguage(n int) ConfigOption {
	return func(c *Config) {
		c.ExpansionsPerLanguage = n
	}
}

// WithVaguenessThreshold sets the generic-token ratio threshold.
func WithVaguenessThreshold(th float64) ConfigOption {
	return func(c *Config) {
		c.VaguenessThreshold = th
	}
}

// WithConfidenceThreshold sets the minimum AI confidence.
func WithConfidenceThreshold(th float64) ConfigOption {
	return func(c *Config) {
		c.ConfidenceThreshold = th
	}
}

// WithResultCaps sets the direct-display and summarizer caps.
func WithResultCaps(direct, summary int) ConfigOption {
	return func(c *Config) {
		c.MaxDirectResults = direct
		c.MaxSummaryResults = summary
	}
}

// WithTieBreak sets the tie-break criteria in order.
func WithTieBreak(criteria ...Criterion) ConfigOption {
	return func(c *Config) {
		c.TieBreak = slices.Clone(criteria)
	}
}

// WithAITimeout sets the AI-assisted parse timeout.
func WithAITimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.AITimeout = d
	}
}

// WithAIDisabled turns off the AI-assisted parser.
func WithAIDisabled() ConfigOption {
	return func(c *Config) {
		c.DisableAI = true
	}
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Languages:             []string{"en"},
		Coefficients:          DefaultCoefficients(),
		ExpansionsPerLanguage: 5,
		VaguenessThreshold:    0.7,
		ConfidenceThreshold:   0.7,
		MaxDirectResults:      20,
		MaxSummaryResults:     100,
		TieBreak:              DefaultTieBreak(),
		AITimeout:             8 * time.Second,
	}
}

// DefaultTieBreak returns the default tie-break order.
func DefaultTieBreak() []Criterion {
	return []Criterion{ByDueDate, ByPriority, ByStatus, ByCreated, ByAlphabetical}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := config.NewConfig(
//	    config.WithLanguages("en", "zh"),
//	    config.WithTieBreak(config.ByPriority, config.ByDueDate),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Languages = slices.Clone(c.Languages)
	out.TieBreak = slices.Clone(c.TieBreak)
	return &out
}

// MaxExpansionsPerKeyword is the per-keyword expansion bound.
func (c *Config) MaxExpansionsPerKeyword() int {
	n := len(c.Languages)
	if n == 0 {
		n = 1
	}
	return c.ExpansionsPerLanguage * n
}

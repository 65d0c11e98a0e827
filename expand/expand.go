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

package expand

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/config"
)

// ErrSourceRequired is returned by Fetch when no keyword source is set.
var ErrSourceRequired = errors.New("keyword expansion source is required")

// Expansion is the bounded keyword set of one query.
type Expansion struct {
	// Core holds the original keywords in order.
	Core []string
	// Groups maps each core keyword to the equivalents kept for it.
	Groups map[string][]string
	// Keywords is Core followed by every group in core order.
	Keywords []string
	// Dropped counts proposals removed as blank, duplicate, overlapping or
	// over the cap.
	Dropped int
}

// Bound keeps at most limit equivalents per core keyword. Proposals that
// are blank, repeat a kept term ignoring case, or are a prefix or suffix of
// a kept term in the same group (or the reverse) are dropped. Core keywords
// are always kept, so Keywords is a superset of core.
func Bound(core []string, proposals map[string][]string, limit int) *Expansion {
	exp := &Expansion{
		Core:   append([]string{}, core...),
		Groups: make(map[string][]string, len(core)),
	}

	seen := make(map[string]bool, len(core))
	for _, kw := range core {
		seen[strings.ToLower(kw)] = true
	}
	exp.Keywords = append(exp.Keywords, exp.Core...)

	for _, kw := range core {
		group := []string{strings.ToLower(kw)}
		var kept []string
		for _, p := range proposals[kw] {
			v := strings.ToLower(strings.TrimSpace(p))
			switch {
			case v == "", seen[v], overlaps(v, group), len(kept) >= limit:
				exp.Dropped++
				continue
			}
			seen[v] = true
			group = append(group, v)
			kept = append(kept, v)
		}
		if len(kept) > 0 {
			exp.Groups[kw] = kept
			exp.Keywords = append(exp.Keywords, kept...)
		}
	}
	return exp
}

// overlaps reports whether v and any term in group share a prefix or
// suffix relation.
func overlaps(v string, group []string) bool {
	for _, k := range group {
		if strings.HasPrefix(v, k) || strings.HasSuffix(v, k) ||
			strings.HasPrefix(k, v) || strings.HasSuffix(k, v) {
			return true
		}
	}
	return false
}

// Expander requests equivalents from a language assist service and bounds
// them with the configured per-keyword cap.
type Expander struct {
	source    ai.KeywordExpander
	languages []string
	perLang   int
	limit     int
	logger    *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithSource sets the service equivalents are fetched from.
func WithSource(source ai.KeywordExpander) Option {
	return func(e *Expander) {
		e.source = source
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		e.logger = logger
	}
}

// New creates an Expander from cfg. A nil cfg selects the defaults.
func New(cfg *config.Config, opts ...Option) *Expander {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Expander{
		languages: append([]string{}, cfg.Languages...),
		perLang:   cfg.ExpansionsPerLanguage,
		limit:     cfg.MaxExpansionsPerKeyword(),
		logger:    slog.Default().With("component", "expander"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Limit is the per-keyword cap: expansions per language times languages.
func (e *Expander) Limit() int {
	return e.limit
}

// HasSource reports whether Fetch can call a service.
func (e *Expander) HasSource() bool {
	return e.source != nil
}

// Bound applies the cap to proposals that are already at hand, such as the
// expansions carried by a parse draft.
func (e *Expander) Bound(core []string, proposals map[string][]string) *Expansion {
	return Bound(core, proposals, e.limit)
}

// Fetch asks the source for equivalents of core and bounds the answer. On
// error the returned Expansion still holds the core keywords.
func (e *Expander) Fetch(ctx context.Context, core []string) (*Expansion, error) {
	if len(core) == 0 || e.limit <= 0 {
		return Bound(core, nil, e.limit), nil
	}
	if e.source == nil {
		return Bound(core, nil, e.limit), ErrSourceRequired
	}

	proposals, err := e.source.ExpandKeywords(ctx, ai.ExpandRequest{
		Keywords:    core,
		Languages:   e.languages,
		PerLanguage: e.perLang,
	})
	if err != nil {
		e.logger.Debug("keyword expansion failed", "category", ai.Classify(err), "err", err)
		return Bound(core, nil, e.limit), err
	}

	exp := Bound(core, proposals, e.limit)
	e.logger.Debug("expanded keywords", "core", len(core), "total", len(exp.Keywords), "dropped", exp.Dropped)
	return exp, nil
}

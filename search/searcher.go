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

package search

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/parse"
	"github.com/poiesic/taskrank/rank"
	"github.com/poiesic/taskrank/score"
)

// State tells an empty result apart from a ranked one.
type State string

const (
	StateRanked State = "ranked"
	// StateNoResults means the query constrained something but no task
	// satisfied it.
	StateNoResults State = "no-results"
	// StateNoFiltersNoResults means the query yielded neither filters nor
	// keywords and the corpus is empty.
	StateNoFiltersNoResults State = "no-filters-no-results"
)

// Diagnostics describes how a query was interpreted.
type Diagnostics struct {
	QueryID          ulid.ULID          `json:"queryId"`
	Outcome          parse.Outcome      `json:"outcome"`
	UsedFallback     bool               `json:"usedFallback"`
	FailureCategory  ai.FailureCategory `json:"failureCategory,omitempty"`
	Remediation      string             `json:"remediation,omitempty"`
	ExpansionFailure ai.FailureCategory `json:"expansionFailure,omitempty"`
	Confidence       *float64           `json:"confidence,omitempty"`
	IsVague          bool               `json:"isVague"`
	TimeContext      string             `json:"timeContext,omitempty"`
	Attempts         int                `json:"attempts"`
	Candidates       int                `json:"candidates"`
	Matched          int                `json:"matched"`
}

// Result is the ranked answer to one query. Tasks and Summary are prefixes
// of the same ranking, capped for direct display and for a downstream
// summarizer respectively.
type Result struct {
	Tasks       []rank.Entry          `json:"tasks"`
	Summary     []rank.Entry          `json:"summary"`
	Query       *core.StructuredQuery `json:"query"`
	Diagnostics Diagnostics           `json:"diagnostics"`
	State       State                 `json:"state"`
}

// Searcher runs queries end to end: interpret, fetch candidates, re-validate
// filters, score, sort and cap. It holds no per-query state and is safe for
// concurrent use.
type Searcher struct {
	parser  *parse.Parser
	corpus  corpus.Provider
	config  *config.Config
	scorer  *score.Scorer
	sorter  *rank.Sorter
	clock   func() time.Time
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock sets the source of "now" used to resolve relative dates.
// Default is time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Searcher) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.clock = clock
		return nil
	}
}

// WithBatchWorkers sets the pool size used by SearchBatch.
// Default is 4.
func WithBatchWorkers(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			n = 1
		}
		s.workers = n
		return nil
	}
}

// NewSearcher creates a new searcher. The glossary and config must be the
// ones the parser was built with.
func NewSearcher(
	parser *parse.Parser,
	provider corpus.Provider,
	cfg *config.Config,
	g *glossary.Glossary,
	opts ...Option,
) (*Searcher, error) {
	if parser == nil {
		return nil, ErrParserRequired
	}
	if provider == nil {
		return nil, ErrCorpusRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	s := &Searcher{
		parser:  parser,
		corpus:  provider,
		config:  cfg,
		scorer:  score.NewScorer(cfg, g),
		sorter:  rank.NewSorter(cfg, g),
		clock:   time.Now,
		workers: 4,
		logger:  slog.Default().With("component", "searcher"),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs one query.
func (s *Searcher) Search(ctx context.Context, query string) (*Result, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs one query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Interpretation never fails; only corpus errors are returned.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	now := s.clock()
	id := s.newQueryID(now)

	monitor.Start(query)

	// 1. Interpret
	parsed := s.parser.Parse(ctx, query, now)
	q := parsed.Query
	monitor.AfterParse(parsed)

	// 2. Fetch candidates; stores may ignore filters they cannot push down
	candidates, err := s.corpus.FetchCandidates(ctx, q.Filters)
	if err != nil {
		s.logger.Error("error fetching candidates", "queryId", id.String(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrCorpusFailed, err)
	}
	monitor.AfterFetch(candidates)

	// 3. Re-validate every filter, then require a keyword hit
	matched := corpus.Filter(candidates, q.Filters, now)
	if q.HasKeywords() && !q.IsVague {
		matched = keywordFilter(matched, q)
	}
	monitor.AfterFilter(matched)

	// 4. Score and sort once
	breakdowns := s.scorer.ScoreAll(matched, q, now)
	entries := make([]rank.Entry, len(matched))
	for i, t := range matched {
		entries[i] = rank.Entry{Task: t, Breakdown: breakdowns[i]}
		monitor.Scored(entries[i])
	}
	s.sorter.Sort(entries)

	result := &Result{
		Tasks:       capped(entries, s.config.MaxDirectResults),
		Summary:     capped(entries, s.config.MaxSummaryResults),
		Query:       q,
		Diagnostics: diagnose(id, parsed, len(candidates), len(matched)),
		State:       stateOf(q, len(entries)),
	}
	monitor.Finish(result)

	s.logger.Debug("search complete",
		"queryId", id.String(),
		"outcome", parsed.Outcome,
		"candidates", len(candidates),
		"matched", len(matched),
		"state", result.State)
	return result, nil
}

func (s *Searcher) newQueryID(now time.Time) ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy)
}

func keywordFilter(tasks []*core.Task, q *core.StructuredQuery) []*core.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if score.MatchesAny(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// capped returns a prefix of at most limit entries; limit <= 0 means all.
func capped(entries []rank.Entry, limit int) []rank.Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func diagnose(id ulid.ULID, parsed *parse.Result, candidates, matched int) Diagnostics {
	q := parsed.Query
	return Diagnostics{
		QueryID:          id,
		Outcome:          parsed.Outcome,
		UsedFallback:     parsed.UsedFallback(),
		FailureCategory:  parsed.Failure,
		Remediation:      parsed.Remediation(),
		ExpansionFailure: parsed.ExpansionFailure,
		Confidence:       parsed.Confidence,
		IsVague:          q.IsVague,
		TimeContext:      q.TimeContext,
		Attempts:         parsed.Attempts,
		Candidates:       candidates,
		Matched:          matched,
	}
}

func stateOf(q *core.StructuredQuery, n int) State {
	switch {
	case n > 0:
		return StateRanked
	case q.Filters.IsEmpty() && !q.HasKeywords():
		return StateNoFiltersNoResults
	default:
		return StateNoResults
	}
}

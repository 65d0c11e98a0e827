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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/expand"
	"github.com/poiesic/taskrank/glossary"
)

// Outcome is the observable result of interpreting one query.
type Outcome string

const (
	// OutcomeAI means the model's interpretation was used.
	OutcomeAI Outcome = "succeeded-ai"
	// OutcomeFallback means the rule parser was used because the model was
	// unavailable, disabled or failed.
	OutcomeFallback Outcome = "succeeded-fallback"
	// OutcomeLowConfidence means the model answered below the confidence
	// threshold and the rule parser was used instead.
	OutcomeLowConfidence Outcome = "succeeded-fallback-low-confidence"
)

// Result is an interpreted query plus how it was obtained.
type Result struct {
	Query   *core.StructuredQuery
	Outcome Outcome

	// Failure is the category of the model failure behind a fallback.
	Failure ai.FailureCategory

	// Confidence is the model's confidence whenever it answered, including
	// low-confidence fallbacks.
	Confidence *float64

	// Attempts counts calls to the language assist service.
	Attempts int

	// ExpansionFailure is set when a separate expansion call failed; the
	// query then carries only its core keywords.
	ExpansionFailure ai.FailureCategory
}

// UsedFallback reports whether the rule parser produced the query.
func (r *Result) UsedFallback() bool {
	return r.Outcome != OutcomeAI
}

// Remediation is the hint for the failure behind a fallback, if any.
func (r *Result) Remediation() string {
	return r.Failure.Remediation()
}

const maxAttempts = 2

// Parser interprets queries with a language assist service and falls back
// to the rule parser whenever the service is unavailable, fails, or is not
// confident. Parse never fails.
type Parser struct {
	rules      *RuleParser
	glossary   *glossary.Glossary
	config     *config.Config
	assistant  ai.LanguageAssistant
	expander   *expand.Expander
	source     ai.KeywordExpander
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithAssistant sets the language assist service. Without one every query
// goes to the rule parser.
func WithAssistant(assistant ai.LanguageAssistant) Option {
	return func(p *Parser) error {
		p.assistant = assistant
		return nil
	}
}

// WithKeywordExpander sets a service asked for keyword equivalents when the
// parse answer carries none.
func WithKeywordExpander(source ai.KeywordExpander) Option {
	return func(p *Parser) error {
		p.source = source
		return nil
	}
}

// WithProvider sets both the assistant and the keyword expander.
func WithProvider(provider ai.Provider) Option {
	return func(p *Parser) error {
		if provider == nil {
			return nil
		}
		p.assistant = provider.Assistant()
		p.source = provider.Expander()
		return nil
	}
}

// WithRetryDelay sets the pause before the single retry.
// Default: 250ms
func WithRetryDelay(d time.Duration) Option {
	return func(p *Parser) error {
		if d < 0 {
			return fmt.Errorf("retry delay cannot be negative: %v", d)
		}
		p.retryDelay = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewParser creates a parser over g and cfg.
func NewParser(g *glossary.Glossary, cfg *config.Config, opts ...Option) (*Parser, error) {
	if g == nil {
		return nil, ErrGlossaryRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	p := &Parser{
		rules:      NewRuleParser(g, cfg),
		glossary:   g,
		config:     cfg,
		retryDelay: 250 * time.Millisecond,
		logger:     slog.Default().With("component", "parser"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.expander = expand.New(cfg, expand.WithSource(p.source), expand.WithLogger(p.logger))
	return p, nil
}

// Rules returns the rule parser used for fallbacks.
func (p *Parser) Rules() *RuleParser {
	return p.rules
}

// Parse interprets raw as of now. The service call is bounded by the
// configured AI timeout and retried at most once, for retryable failures
// only. Cancelling ctx lands on the rule parser.
func (p *Parser) Parse(ctx context.Context, raw string, now time.Time) *Result {
	analysis := p.rules.Analyze(raw, now)
	fallback := &Result{Query: analysis.Query, Outcome: OutcomeFallback}

	if p.assistant == nil || p.config.DisableAI || strings.TrimSpace(raw) == "" {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, p.config.AITimeout)
	defer cancel()

	req := ai.ParseRequest{
		Query:                 raw,
		Categories:            p.glossary.Categories(),
		Languages:             p.config.Languages,
		ExpansionsPerLanguage: p.config.ExpansionsPerLanguage,
		Today:                 now,
	}

	var draft *ai.Draft
	retry := ai.RetryPolicy{MaxAttempts: maxAttempts, Delay: p.retryDelay, Logger: p.logger}
	err := retry.Do(callCtx, func(attempt int) error {
		fallback.Attempts = attempt
		d, err := p.assistant.Parse(callCtx, req)
		if err != nil {
			return err
		}
		if d == nil {
			return &ai.Failure{Category: ai.FailureMalformedResponse, Err: fmt.Errorf("%w: %w", ai.ErrMalformedResponse, ai.ErrEmptyResponse)}
		}
		draft = d
		return nil
	})

	var query *core.StructuredQuery
	if err == nil {
		query, err = p.fromDraft(raw, draft, analysis, now)
	}
	if err != nil {
		fallback.Failure = ai.Classify(err)
		p.logger.Warn("language assist failed, using rule parser",
			"category", fallback.Failure,
			"attempts", fallback.Attempts,
			"err", err)
		return fallback
	}

	confidence := *draft.Confidence
	if confidence < p.config.ConfidenceThreshold {
		p.logger.Debug("language assist not confident, using rule parser",
			"confidence", confidence,
			"threshold", p.config.ConfidenceThreshold)
		fallback.Outcome = OutcomeLowConfidence
		fallback.Confidence = &confidence
		return fallback
	}

	res := &Result{Query: query, Outcome: OutcomeAI, Confidence: &confidence, Attempts: fallback.Attempts}
	query.Confidence = &confidence

	var exp *expand.Expansion
	if proposals := normalizeExpansions(draft.Expansions); len(proposals) > 0 || !p.expander.HasSource() {
		exp = p.expander.Bound(query.CoreKeywords, proposals)
	} else {
		var expErr error
		exp, expErr = p.expander.Fetch(callCtx, query.CoreKeywords)
		if expErr != nil {
			res.ExpansionFailure = ai.Classify(expErr)
		}
	}
	query.ExpandedKeywords = exp.Keywords

	p.logger.Debug("parsed query with language assist",
		"keywords", len(query.CoreKeywords),
		"expanded", len(query.ExpandedKeywords),
		"vague", query.IsVague)
	return res
}

// normalizeExpansions lowercases the keys of a draft's expansion map so they
// line up with normalized core keywords.
func normalizeExpansions(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		out[k] = append(out[k], v...)
	}
	return out
}

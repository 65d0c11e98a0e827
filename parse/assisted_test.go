package parse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/ai/mock"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
)

func conf(v float64) *float64 { return &v }

func newTestParser(t *testing.T, cfg *config.Config, opts ...Option) *Parser {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	p, err := NewParser(glossary.Default(), cfg, opts...)
	require.NoError(t, err)
	return p
}

func TestNewParser_Validation(t *testing.T) {
	_, err := NewParser(nil, config.NewConfig())
	assert.ErrorIs(t, err, ErrGlossaryRequired)

	_, err = NewParser(glossary.Default(), nil)
	assert.ErrorIs(t, err, ErrConfigRequired)

	_, err = NewParser(glossary.Default(), config.NewConfig(), WithRetryDelay(-time.Second))
	assert.Error(t, err)
}

func TestParser_UsesDraft(t *testing.T) {
	assistant := mock.NewMockAssistant().WithDraft(ai.Draft{
		CoreKeywords: []string{"Report", "report", "the"},
		Expansions:   map[string][]string{"report": {"summary", "reports", "报告"}},
		Priority:     &ai.PriorityValue{Level: 1},
		Due:          &ai.DueValue{Symbol: "today"},
		Status:       []string{"todo"},
		Confidence:   conf(0.92),
	})
	p := newTestParser(t, config.NewConfig(config.WithLanguages("en", "zh")), WithAssistant(assistant))

	res := p.Parse(context.Background(), "urgent report due today #work", testNow)

	assert.Equal(t, OutcomeAI, res.Outcome)
	assert.False(t, res.UsedFallback())
	assert.Equal(t, ai.FailureNone, res.Failure)
	assert.Equal(t, 1, res.Attempts)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.92, *res.Confidence, 1e-9)

	q := res.Query
	assert.Equal(t, []string{"report"}, q.CoreKeywords)
	// "reports" overlaps "report" and is dropped.
	assert.Equal(t, []string{"report", "summary", "报告"}, q.ExpandedKeywords)
	assert.Equal(t, core.PriorityLevel(1), q.Filters.Priority)
	assert.Equal(t, core.DueToday, q.Filters.Due)
	assert.Equal(t, []string{"open"}, q.Filters.Status.Keys)
	assert.Equal(t, []string{"work"}, q.Filters.Tags, "tags the model missed come from the rule parser")
	require.NotNil(t, q.Confidence)
	assert.Equal(t, 1, assistant.CallCount())

	req, ok := assistant.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "urgent report due today #work", req.Query)
	assert.Equal(t, []string{"en", "zh"}, req.Languages)
}

func TestParser_TimeoutFallsBack(t *testing.T) {
	assistant := mock.NewMockAssistant().WithParseFunc(func(ctx context.Context, _ ai.ParseRequest) (*ai.Draft, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := config.NewConfig(config.WithAITimeout(20 * time.Millisecond))
	p := newTestParser(t, cfg, WithAssistant(assistant))

	res := p.Parse(context.Background(), "quarterly report p1", testNow)

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.True(t, res.UsedFallback())
	assert.Equal(t, ai.FailureTimeout, res.Failure)
	assert.NotEmpty(t, res.Remediation())
	assert.Nil(t, res.Confidence)
	assert.Nil(t, res.Query.Confidence)
	assert.Equal(t, []string{"quarterly", "report"}, res.Query.CoreKeywords)
	assert.Equal(t, core.PriorityLevel(1), res.Query.Filters.Priority)
}

func TestParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestParser(t, nil, WithAssistant(mock.NewMockAssistant()))
	res := p.Parse(ctx, "report", testNow)

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ai.FailureTimeout, res.Failure)
	assert.Equal(t, []string{"report"}, res.Query.CoreKeywords)
}

func TestParser_Retry(t *testing.T) {
	tests := []struct {
		name     string
		errs     []ai.FailureCategory
		outcome  Outcome
		failure  ai.FailureCategory
		attempts int
	}{
		{name: "server error then success", errs: []ai.FailureCategory{ai.FailureServerError}, outcome: OutcomeAI, attempts: 2},
		{name: "network error then success", errs: []ai.FailureCategory{ai.FailureNetworkError}, outcome: OutcomeAI, attempts: 2},
		{name: "rate limited twice", errs: []ai.FailureCategory{ai.FailureRateLimited, ai.FailureRateLimited}, outcome: OutcomeFallback, failure: ai.FailureRateLimited, attempts: 2},
		{name: "unauthorized is not retried", errs: []ai.FailureCategory{ai.FailureUnauthorized}, outcome: OutcomeFallback, failure: ai.FailureUnauthorized, attempts: 1},
		{name: "bad request is not retried", errs: []ai.FailureCategory{ai.FailureBadRequest}, outcome: OutcomeFallback, failure: ai.FailureBadRequest, attempts: 1},
		{name: "model not found is not retried", errs: []ai.FailureCategory{ai.FailureModelNotFound}, outcome: OutcomeFallback, failure: ai.FailureModelNotFound, attempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			assistant := mock.NewMockAssistant().WithParseFunc(func(context.Context, ai.ParseRequest) (*ai.Draft, error) {
				calls++
				if calls <= len(tt.errs) {
					return nil, &ai.Failure{Category: tt.errs[calls-1], Err: errors.New("provider said no")}
				}
				return &ai.Draft{CoreKeywords: []string{"report"}, Confidence: conf(0.9)}, nil
			})
			p := newTestParser(t, nil, WithAssistant(assistant))

			res := p.Parse(context.Background(), "report", testNow)

			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.failure, res.Failure)
			assert.Equal(t, tt.attempts, res.Attempts)
			assert.Equal(t, tt.attempts, assistant.CallCount())
		})
	}
}

func TestParser_LowConfidence(t *testing.T) {
	draft := ai.Draft{CoreKeywords: []string{"something", "else"}, Confidence: conf(0.4)}

	t.Run("below default threshold", func(t *testing.T) {
		p := newTestParser(t, nil, WithAssistant(mock.NewMockAssistant().WithDraft(draft)))

		res := p.Parse(context.Background(), "tax forms", testNow)

		assert.Equal(t, OutcomeLowConfidence, res.Outcome)
		assert.True(t, res.UsedFallback())
		assert.Equal(t, ai.FailureNone, res.Failure)
		require.NotNil(t, res.Confidence)
		assert.InDelta(t, 0.4, *res.Confidence, 1e-9)
		assert.Equal(t, []string{"tax", "forms"}, res.Query.CoreKeywords)
		assert.Nil(t, res.Query.Confidence)
	})

	t.Run("configurable threshold", func(t *testing.T) {
		cfg := config.NewConfig(config.WithConfidenceThreshold(0.3))
		p := newTestParser(t, cfg, WithAssistant(mock.NewMockAssistant().WithDraft(draft)))

		res := p.Parse(context.Background(), "tax forms", testNow)

		assert.Equal(t, OutcomeAI, res.Outcome)
		assert.Equal(t, []string{"else"}, res.Query.CoreKeywords)
	})
}

func TestParser_InvalidDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft ai.Draft
	}{
		{name: "missing confidence", draft: ai.Draft{CoreKeywords: []string{"x"}}},
		{name: "priority out of range", draft: ai.Draft{Priority: &ai.PriorityValue{Level: 7}, Confidence: conf(0.9)}},
		{name: "unknown status", draft: ai.Draft{Status: []string{"blocked"}, Confidence: conf(0.9)}},
		{name: "unknown due symbol", draft: ai.Draft{Due: &ai.DueValue{Symbol: "someday"}, Confidence: conf(0.9)}},
		{name: "bad due operator", draft: ai.Draft{Due: &ai.DueValue{Operator: "around", Date: "2025-03-20"}, Confidence: conf(0.9)}},
		{name: "bad due date", draft: ai.Draft{Due: &ai.DueValue{Operator: "before", Date: "next tuesday"}, Confidence: conf(0.9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := mock.NewMockAssistant().WithDraft(tt.draft)
			p := newTestParser(t, nil, WithAssistant(assistant))

			res := p.Parse(context.Background(), "status:done report", testNow)

			assert.Equal(t, OutcomeFallback, res.Outcome)
			assert.Equal(t, ai.FailureMalformedResponse, res.Failure)
			assert.Equal(t, 1, res.Attempts, "malformed answers are not retried")
			assert.Equal(t, []string{"completed"}, res.Query.Filters.Status.Keys)
		})
	}

	t.Run("nil draft", func(t *testing.T) {
		assistant := mock.NewMockAssistant().WithParseFunc(func(context.Context, ai.ParseRequest) (*ai.Draft, error) {
			return nil, nil
		})
		p := newTestParser(t, nil, WithAssistant(assistant))

		res := p.Parse(context.Background(), "report", testNow)
		assert.Equal(t, ai.FailureMalformedResponse, res.Failure)
	})
}

func TestParser_DueRangeDraft(t *testing.T) {
	assistant := mock.NewMockAssistant().WithDraft(ai.Draft{
		CoreKeywords: []string{"taxes"},
		Due:          &ai.DueValue{Operator: "before", Date: "2025-04-15"},
		Confidence:   conf(0.8),
	})
	p := newTestParser(t, nil, WithAssistant(assistant))

	res := p.Parse(context.Background(), "taxes before april 15", testNow)

	require.Equal(t, OutcomeAI, res.Outcome)
	assert.Equal(t, core.DueRange{Op: core.RangeBefore, Ref: date(2025, 4, 15)}, res.Query.Filters.Due)
	assert.False(t, res.Query.IsVague)
}

func TestParser_VagueDraft(t *testing.T) {
	assistant := mock.NewMockAssistant().WithDraft(ai.Draft{
		Due:        &ai.DueValue{Symbol: "today"},
		IsVague:    true,
		Confidence: conf(0.85),
	})
	p := newTestParser(t, nil, WithAssistant(assistant))

	res := p.Parse(context.Background(), "what should I do today", testNow)

	require.Equal(t, OutcomeAI, res.Outcome)
	q := res.Query
	assert.True(t, q.IsVague)
	assert.Equal(t, "today", q.TimeContext)
	assert.Equal(t, core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 12)}, q.Filters.Due)
	assert.Empty(t, q.CoreKeywords)
}

func TestParser_NoAssistant(t *testing.T) {
	t.Run("nil assistant", func(t *testing.T) {
		p := newTestParser(t, nil)
		res := p.Parse(context.Background(), "p2 report", testNow)

		assert.Equal(t, OutcomeFallback, res.Outcome)
		assert.Equal(t, ai.FailureNone, res.Failure)
		assert.Equal(t, 0, res.Attempts)
		assert.Equal(t, core.PriorityLevel(2), res.Query.Filters.Priority)
	})

	t.Run("disabled", func(t *testing.T) {
		assistant := mock.NewMockAssistant()
		p := newTestParser(t, config.NewConfig(config.WithAIDisabled()), WithAssistant(assistant))
		res := p.Parse(context.Background(), "report", testNow)

		assert.Equal(t, OutcomeFallback, res.Outcome)
		assert.Equal(t, 0, assistant.CallCount())
	})

	t.Run("empty query", func(t *testing.T) {
		assistant := mock.NewMockAssistant()
		p := newTestParser(t, nil, WithAssistant(assistant))
		res := p.Parse(context.Background(), "   ", testNow)

		assert.Equal(t, OutcomeFallback, res.Outcome)
		assert.Equal(t, 0, assistant.CallCount())
		assert.Empty(t, res.Query.CoreKeywords)
	})
}

func TestParser_SeparateExpansion(t *testing.T) {
	draft := ai.Draft{CoreKeywords: []string{"meeting"}, Confidence: conf(0.9)}

	t.Run("expander fills in", func(t *testing.T) {
		expander := mock.NewMockExpander(map[string][]string{"meeting": {"sync", "standup", "会议"}})
		cfg := config.NewConfig(config.WithLanguages("en"), config.WithExpansionsPerLanguage(2))
		p := newTestParser(t, cfg,
			WithAssistant(mock.NewMockAssistant().WithDraft(draft)),
			WithKeywordExpander(expander))

		res := p.Parse(context.Background(), "meeting", testNow)

		require.Equal(t, OutcomeAI, res.Outcome)
		assert.Equal(t, []string{"meeting", "sync", "standup"}, res.Query.ExpandedKeywords)
		assert.Equal(t, 1, expander.CallCount())
		assert.Equal(t, ai.FailureNone, res.ExpansionFailure)
	})

	t.Run("expander failure keeps core keywords", func(t *testing.T) {
		expander := mock.NewMockExpander(nil).WithExpandKeywordsFunc(func(context.Context, ai.ExpandRequest) (map[string][]string, error) {
			return nil, &ai.Failure{Category: ai.FailureRateLimited}
		})
		p := newTestParser(t, nil,
			WithAssistant(mock.NewMockAssistant().WithDraft(draft)),
			WithKeywordExpander(expander))

		res := p.Parse(context.Background(), "meeting", testNow)

		assert.Equal(t, OutcomeAI, res.Outcome)
		assert.Equal(t, ai.FailureRateLimited, res.ExpansionFailure)
		assert.Equal(t, []string{"meeting"}, res.Query.ExpandedKeywords)
	})

	t.Run("provider wires both", func(t *testing.T) {
		provider := mock.NewMockProviderWithServices(
			mock.NewMockAssistant().WithDraft(draft),
			mock.NewMockExpander(map[string][]string{"meeting": {"call"}}),
		)
		p := newTestParser(t, nil, WithProvider(provider))

		res := p.Parse(context.Background(), "meeting", testNow)

		assert.Equal(t, []string{"meeting", "call"}, res.Query.ExpandedKeywords)
		assert.Equal(t, 1, provider.GetMockExpander().CallCount())
	})
}

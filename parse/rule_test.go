package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
)

// Wednesday.
var testNow = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRuleParser(langs ...string) *RuleParser {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	return NewRuleParser(glossary.Default(), config.NewConfig(config.WithLanguages(langs...)))
}

func TestRuleParser_ShorthandOnly(t *testing.T) {
	p := newRuleParser()

	for _, raw := range []string{"p1", "priority 1", "priority:1", "⏫", "high priority"} {
		t.Run(raw, func(t *testing.T) {
			q := p.Parse(raw, testNow)
			assert.Empty(t, q.CoreKeywords)
			assert.NotNil(t, q.CoreKeywords)
			assert.Equal(t, core.PriorityLevel(1), q.Filters.Priority)
			assert.Nil(t, q.Confidence)
		})
	}
}

func TestRuleParser_Priority(t *testing.T) {
	p := newRuleParser()

	tests := []struct {
		raw  string
		want core.PriorityFilter
		kws  []string
	}{
		{"p3 cleanup", core.PriorityLevel(3), []string{"cleanup"}},
		{"priority:any chores", core.PriorityAny{}, []string{"chores"}},
		{"tasks with priority", core.PriorityAny{}, []string{}},
		{"reports priority", core.PriorityAny{}, []string{"reports"}},
		{"what is the priority of the budget report", nil, []string{"priority", "budget", "report"}},
		{"priority review notes", nil, []string{"priority", "review", "notes"}},
		{"urgent invoices", core.PriorityLevel(1), []string{"invoices"}},
		{"🔽 garden", core.PriorityLevel(3), []string{"garden"}},
		{"p5 rollout", nil, []string{"p5", "rollout"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := p.Parse(tt.raw, testNow)
			assert.Equal(t, tt.want, q.Filters.Priority)
			assert.Equal(t, tt.kws, q.CoreKeywords)
		})
	}
}

func TestRuleParser_Status(t *testing.T) {
	p := newRuleParser()

	tests := []struct {
		raw  string
		keys []string
		kws  []string
	}{
		{"s:open,in-progress report", []string{"open", "in-progress"}, []string{"report"}},
		{"status:x", []string{"completed"}, []string{}},
		{"[/] migration", []string{"in-progress"}, []string{"migration"}},
		{"in progress tasks", []string{"in-progress"}, []string{}},
		{"done and cancelled", []string{"completed", "cancelled"}, []string{}},
		{"status done", []string{"completed"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := p.Parse(tt.raw, testNow)
			require.NotNil(t, q.Filters.Status)
			assert.Equal(t, tt.keys, q.Filters.Status.Keys)
			assert.Equal(t, tt.kws, q.CoreKeywords)
		})
	}

	t.Run("todo is not a status", func(t *testing.T) {
		q := p.Parse("todo list", testNow)
		assert.Nil(t, q.Filters.Status)
	})

	t.Run("unknown status stays a keyword", func(t *testing.T) {
		q := p.Parse("status:blocked", testNow)
		assert.Nil(t, q.Filters.Status)
		assert.Equal(t, []string{"status:blocked"}, q.CoreKeywords)
	})
}

func TestRuleParser_Due(t *testing.T) {
	p := newRuleParser()

	tests := []struct {
		raw  string
		want core.DueFilter
		kws  []string
	}{
		{"due today", core.DueToday, []string{}},
		{"due:today", core.DueToday, []string{}},
		{"due:week review", core.DueThisWeek, []string{"review"}},
		{"due:2025-03-20", core.DueRange{Op: core.RangeOn, Ref: date(2025, 3, 20)}, []string{}},
		{"due:<=2025-03-20", core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 20)}, []string{}},
		{"due:>today", core.DueRange{Op: core.RangeAfter, Ref: date(2025, 3, 12)}, []string{}},
		{"due before 2025-04-01 taxes", core.DueRange{Op: core.RangeBefore, Ref: date(2025, 4, 1)}, []string{"taxes"}},
		{"report by friday", core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 14)}, []string{"report"}},
		{"due by next week", core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 23)}, []string{}},
		{"before next week", core.DueRange{Op: core.RangeBefore, Ref: date(2025, 3, 17)}, []string{}},
		{"no due date cleanup", core.DueNone, []string{"cleanup"}},
		{"has due date", core.DueAny, []string{}},
		{"next 3 days", core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 15)}, []string{}},
		{"within 2 weeks", core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 26)}, []string{}},
		{"2025-03-14 demo", core.DueRange{Op: core.RangeOn, Ref: date(2025, 3, 14)}, []string{"demo"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := p.Parse(tt.raw, testNow)
			assert.Equal(t, tt.want, q.Filters.Due)
			assert.Equal(t, tt.kws, q.CoreKeywords)
			assert.Empty(t, q.TimeContext)
		})
	}
}

func TestRuleParser_TagsAndFolder(t *testing.T) {
	p := newRuleParser()

	q := p.Parse("fix login bug #work #Work tag:backend folder:projects/app/", testNow)
	assert.Equal(t, []string{"work", "backend"}, q.Filters.Tags)
	assert.Equal(t, "projects/app", q.Filters.Folder)
	assert.Equal(t, []string{"fix", "login", "bug"}, q.CoreKeywords)
	assert.Equal(t, q.CoreKeywords, q.ExpandedKeywords)
}

func TestRuleParser_Connectors(t *testing.T) {
	p := newRuleParser()

	a := p.Analyze("urgent meeting notes and slides", testNow)
	assert.Equal(t, []string{"and"}, a.Connectors)
	assert.Equal(t, core.PriorityLevel(1), a.Query.Filters.Priority)
	assert.Equal(t, []string{"meeting", "notes", "slides"}, a.Query.CoreKeywords)
}

func TestRuleParser_Vagueness(t *testing.T) {
	p := newRuleParser()

	t.Run("all generic plus time word", func(t *testing.T) {
		q := p.Parse("What should I do today?", testNow)

		assert.True(t, q.IsVague)
		assert.Equal(t, "today", q.TimeContext)
		assert.Empty(t, q.CoreKeywords)
		r, ok := q.Filters.Due.(core.DueRange)
		require.True(t, ok, "never an exact-date filter")
		assert.Equal(t, core.RangeOnOrBefore, r.Op)
		assert.Equal(t, date(2025, 3, 12), r.Ref)
	})

	t.Run("bare time word alone is forced vague", func(t *testing.T) {
		a := p.Analyze("overdue", testNow)
		assert.True(t, a.Query.IsVague)
		assert.True(t, a.Forced)
		assert.Equal(t, "overdue", a.Query.TimeContext)
		assert.Equal(t, core.DueRange{Op: core.RangeBefore, Ref: date(2025, 3, 12)}, a.Query.Filters.Due)
	})

	t.Run("explicit due shorthand stays hard", func(t *testing.T) {
		q := p.Parse("priority 1 due today", testNow)
		assert.False(t, q.IsVague)
		assert.Equal(t, core.DueToday, q.Filters.Due)
		assert.Equal(t, core.PriorityLevel(1), q.Filters.Priority)
	})

	t.Run("explicit due on a vague query is relaxed", func(t *testing.T) {
		for _, raw := range []string{"what is due today", "what's due today?"} {
			a := p.Analyze(raw, testNow)
			assert.True(t, a.Query.IsVague, raw)
			assert.False(t, a.Forced, raw)
			assert.Equal(t, "today", a.Query.TimeContext, raw)
			assert.Equal(t, core.DueRange{Op: core.RangeOnOrBefore, Ref: date(2025, 3, 12)}, a.Query.Filters.Due, raw)
		}
	})

	t.Run("bare due shorthand stays hard", func(t *testing.T) {
		q := p.Parse("due this week", testNow)
		assert.False(t, q.IsVague)
		assert.Equal(t, core.DueThisWeek, q.Filters.Due)
		assert.Empty(t, q.TimeContext)
	})

	t.Run("time word with another filter stays hard", func(t *testing.T) {
		q := p.Parse("high priority report today", testNow)
		assert.False(t, q.IsVague)
		assert.Equal(t, core.DueToday, q.Filters.Due)
		assert.Empty(t, q.TimeContext)
	})

	t.Run("generic words without time word", func(t *testing.T) {
		q := p.Parse("show me my stuff", testNow)
		assert.True(t, q.IsVague)
		assert.Nil(t, q.Filters.Due)
		assert.Empty(t, q.TimeContext)
	})
}

func TestRuleParser_Chinese(t *testing.T) {
	p := newRuleParser("en", "zh")

	t.Run("vague with time word", func(t *testing.T) {
		q := p.Parse("今天要做什么", testNow)
		assert.True(t, q.IsVague)
		assert.Equal(t, "今天", q.TimeContext)
		assert.Empty(t, q.CoreKeywords)
	})

	t.Run("priority alias and keyword", func(t *testing.T) {
		q := p.Parse("报告 高优先级", testNow)
		assert.Equal(t, core.PriorityLevel(1), q.Filters.Priority)
		assert.Equal(t, []string{"报告"}, q.CoreKeywords)
	})
}

func TestMatcher_DoesNotModifyInput(t *testing.T) {
	p := newRuleParser()
	tokens := p.Tokenize("report p2 #work")
	before := append(Tokens(nil), tokens...)

	for _, m := range p.matchers {
		_, rest, ok := m.Match(tokens, testNow)
		if ok {
			assert.Less(t, len(rest), len(tokens))
		}
	}
	assert.Equal(t, before, tokens)
}

func TestRuleParser_EmptyQuery(t *testing.T) {
	q := newRuleParser().Parse("", testNow)
	assert.Empty(t, q.CoreKeywords)
	assert.True(t, q.Filters.IsEmpty())
	assert.False(t, q.IsVague)
}

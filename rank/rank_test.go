package rank

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/score"
)

func date(d int) *time.Time {
	t := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func entry(task *core.Task, final float64) Entry {
	if task.ID == 0 {
		task.ID = core.IDFromContent(task.Text)
	}
	return Entry{Task: task, Breakdown: score.Breakdown{Final: final}}
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Task.Text
	}
	return out
}

func TestSort_ScoreDescending(t *testing.T) {
	s := NewSorter(config.NewConfig(), glossary.Default())
	entries := []Entry{
		entry(&core.Task{Text: "low"}, 1),
		entry(&core.Task{Text: "high"}, 9),
		entry(&core.Task{Text: "mid"}, 5),
	}

	s.Sort(entries)
	assert.Equal(t, []string{"high", "mid", "low"}, texts(entries))
}

func TestSort_PriorityBeatsDueDate(t *testing.T) {
	cfg := config.NewConfig(config.WithTieBreak(config.ByPriority, config.ByDueDate))
	s := NewSorter(cfg, glossary.Default())

	entries := []Entry{
		entry(&core.Task{Text: "B", Priority: 2, Due: date(1)}, 3),
		entry(&core.Task{Text: "A", Priority: 1, Due: date(28)}, 3),
	}
	s.Sort(entries)
	assert.Equal(t, []string{"A", "B"}, texts(entries))
}

func TestSort_Criteria(t *testing.T) {
	tests := []struct {
		name      string
		criterion config.Criterion
		tasks     []*core.Task
		want      []string
	}{
		{
			name:      "due date earliest first, none last",
			criterion: config.ByDueDate,
			tasks: []*core.Task{
				{Text: "none"},
				{Text: "late", Due: date(20)},
				{Text: "early", Due: date(2)},
			},
			want: []string{"early", "late", "none"},
		},
		{
			name:      "priority 1 first, unset last",
			criterion: config.ByPriority,
			tasks: []*core.Task{
				{Text: "unset"},
				{Text: "p3", Priority: 3},
				{Text: "p1", Priority: 1},
			},
			want: []string{"p1", "p3", "unset"},
		},
		{
			name:      "status by glossary position, unmapped last",
			criterion: config.ByStatus,
			tasks: []*core.Task{
				{Text: "blocked", Status: "blocked"},
				{Text: "done", Status: "completed"},
				{Text: "doing", Status: "in-progress"},
				{Text: "todo", Status: "open"},
			},
			want: []string{"doing", "todo", "done", "blocked"},
		},
		{
			name:      "created newest first, none last",
			criterion: config.ByCreated,
			tasks: []*core.Task{
				{Text: "none"},
				{Text: "old", Created: date(1)},
				{Text: "new", Created: date(9)},
			},
			want: []string{"new", "old", "none"},
		},
		{
			name:      "alphabetical ignores case",
			criterion: config.ByAlphabetical,
			tasks: []*core.Task{
				{Text: "banana"},
				{Text: "Cherry"},
				{Text: "apple"},
			},
			want: []string{"apple", "banana", "Cherry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSorter(config.NewConfig(config.WithTieBreak(tt.criterion)), glossary.Default())
			entries := make([]Entry, len(tt.tasks))
			for i, task := range tt.tasks {
				entries[i] = entry(task, 2)
			}
			s.Sort(entries)
			assert.Equal(t, tt.want, texts(entries))
		})
	}
}

func TestSort_Deterministic(t *testing.T) {
	s := NewSorter(config.NewConfig(), glossary.Default())
	base := []Entry{
		entry(&core.Task{Text: "a", Priority: 2}, 4),
		entry(&core.Task{Text: "b", Priority: 2}, 4),
		entry(&core.Task{Text: "c", Priority: 1}, 4+Epsilon/2),
		entry(&core.Task{Text: "d", Due: date(3)}, 4),
		entry(&core.Task{Text: "e"}, 0),
		entry(&core.Task{Text: "f"}, 0),
		entry(&core.Task{Text: "g", Status: "open"}, 7),
	}

	want := append([]Entry(nil), base...)
	s.Sort(want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Entry(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		s.Sort(shuffled)
		assert.Equal(t, texts(want), texts(shuffled))
	}

	again := append([]Entry(nil), want...)
	s.Sort(again)
	assert.Equal(t, texts(want), texts(again), "sorting is idempotent")

	assert.Equal(t, []string{"g", "d", "c", "a", "b", "e", "f"}, texts(want))
}

func TestTieGroups(t *testing.T) {
	entries := []Entry{
		entry(&core.Task{Text: "1"}, 5),
		entry(&core.Task{Text: "2"}, 3+2*Epsilon/3),
		entry(&core.Task{Text: "3"}, 3+Epsilon/3),
		entry(&core.Task{Text: "4"}, 3),
		entry(&core.Task{Text: "5"}, 1),
	}
	assert.Equal(t, [][2]int{{1, 4}}, TieGroups(entries))
	assert.Empty(t, TieGroups(nil))
}

func TestNewSorter_SkipsRelevance(t *testing.T) {
	cfg := config.NewConfig(config.WithTieBreak(config.ByRelevance, config.ByPriority, config.ByPriority))
	s := NewSorter(cfg, nil)
	assert.Equal(t, []config.Criterion{config.ByPriority}, s.Criteria())
}

func TestCompare_TotalOnEqualData(t *testing.T) {
	s := NewSorter(config.NewConfig(), glossary.Default())
	a := &core.Task{ID: 1, Text: "same"}
	b := &core.Task{ID: 2, Text: "same"}

	assert.Equal(t, -1, s.Compare(a, b))
	assert.Equal(t, 1, s.Compare(b, a))
	assert.Equal(t, 0, s.Compare(a, a))
}

package badger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestStore(t *testing.T) (*TaskStore, *CheckpointStore) {
	t.Helper()
	tasks, checkpoints, backend, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		tasks.Close()
		backend.Close()
	})
	return tasks, checkpoints
}

func sampleTasks() []*core.Task {
	return []*core.Task{
		{Text: "Write report", Location: "work/a.md:1", Priority: 1, Due: day(2025, 3, 12), Status: "open", Tags: []string{"work"}, Folder: "work"},
		{Text: "Review budget", Location: "work/a.md:2", Priority: 2, Due: day(2025, 3, 20), Status: "in-progress", Folder: "work"},
		{Text: "Buy milk", Location: "home/b.md:1", Status: "open", Tags: []string{"errand"}, Folder: "home"},
		{Text: "Old chore", Location: "home/b.md:2", Due: day(2025, 3, 1), Status: "completed", Folder: "home"},
	}
}

func texts(tasks []*core.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	sort.Strings(out)
	return out
}

func TestTaskStore_PutAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tasks := sampleTasks()
	require.NoError(t, store.PutTasks(ctx, tasks...))

	for _, want := range tasks {
		require.NotZero(t, want.ID)
		got, err := store.GetTask(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.Priority, got.Priority)
		if want.Due == nil {
			assert.Nil(t, got.Due)
		} else {
			require.NotNil(t, got.Due)
			assert.True(t, want.Due.Equal(*got.Due))
		}
	}

	n, err := store.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTaskStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetTask(context.Background(), 12345)
	assert.ErrorIs(t, err, corpus.ErrNotFound)
}

func TestTaskStore_PutInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.PutTasks(context.Background(), &core.Task{Location: "a.md:1"})
	assert.ErrorIs(t, err, core.ErrInvalidTask)
}

func TestTaskStore_UpdateMovesIndexes(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	task := &core.Task{Text: "Ship it", Location: "a.md:1", Status: "open", Due: day(2025, 3, 12)}
	require.NoError(t, store.PutTasks(ctx, task))

	updated := &core.Task{ID: task.ID, Text: "Ship it", Location: "a.md:1", Status: "completed", Due: day(2025, 4, 1)}
	require.NoError(t, store.PutTasks(ctx, updated))

	open, err := store.FetchCandidates(ctx, core.PropertyFilters{Status: &core.StatusFilter{Keys: []string{"open"}}})
	require.NoError(t, err)
	assert.Empty(t, open)

	done, err := store.FetchCandidates(ctx, core.PropertyFilters{Status: &core.StatusFilter{Keys: []string{"completed"}}})
	require.NoError(t, err)
	require.Len(t, done, 1)

	march, err := store.FetchCandidates(ctx, core.PropertyFilters{
		Due: core.DueRange{Op: core.RangeOn, Ref: *day(2025, 3, 12)},
	})
	require.NoError(t, err)
	assert.Empty(t, march)
}

func TestTaskStore_FetchCandidates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutTasks(ctx, sampleTasks()...))

	tests := []struct {
		name    string
		filters core.PropertyFilters
		want    []string
	}{
		{
			name: "no filters returns everything",
			want: []string{"Buy milk", "Old chore", "Review budget", "Write report"},
		},
		{
			name:    "status union",
			filters: core.PropertyFilters{Status: &core.StatusFilter{Keys: []string{"open", "in-progress"}}},
			want:    []string{"Buy milk", "Review budget", "Write report"},
		},
		{
			name:    "due before",
			filters: core.PropertyFilters{Due: core.DueRange{Op: core.RangeBefore, Ref: *day(2025, 3, 12)}},
			want:    []string{"Old chore"},
		},
		{
			name:    "due on or before",
			filters: core.PropertyFilters{Due: core.DueRange{Op: core.RangeOnOrBefore, Ref: *day(2025, 3, 12)}},
			want:    []string{"Old chore", "Write report"},
		},
		{
			name:    "due after",
			filters: core.PropertyFilters{Due: core.DueRange{Op: core.RangeAfter, Ref: *day(2025, 3, 12)}},
			want:    []string{"Review budget"},
		},
		{
			name:    "due on",
			filters: core.PropertyFilters{Due: core.DueRange{Op: core.RangeOn, Ref: *day(2025, 3, 20)}},
			want:    []string{"Review budget"},
		},
		{
			name:    "has due date",
			filters: core.PropertyFilters{Due: core.DueAny},
			want:    []string{"Old chore", "Review budget", "Write report"},
		},
		{
			name:    "no due date",
			filters: core.PropertyFilters{Due: core.DueNone},
			want:    []string{"Buy milk"},
		},
		{
			name:    "relative symbol is not pushed down",
			filters: core.PropertyFilters{Due: core.DueToday, Folder: "work"},
			want:    []string{"Review budget", "Write report"},
		},
		{
			name:    "priority and tag",
			filters: core.PropertyFilters{Priority: core.PriorityLevel(1), Tags: []string{"work"}},
			want:    []string{"Write report"},
		},
		{
			name:    "status and due combined",
			filters: core.PropertyFilters{Status: &core.StatusFilter{Keys: []string{"open"}}, Due: core.DueAny},
			want:    []string{"Write report"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FetchCandidates(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(got))
		})
	}
}

func TestTaskStore_ReplaceSource(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutTasks(ctx, sampleTasks()...))

	err := store.ReplaceSource(ctx, "home/b.md",
		&core.Task{Text: "Call plumber", Location: "home/b.md:1", Status: "open", Folder: "home"},
	)
	require.NoError(t, err)

	n, err := store.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	home, err := store.FetchCandidates(ctx, core.PropertyFilters{Folder: "home"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Call plumber"}, texts(home))

	assert.ErrorIs(t, store.ReplaceSource(ctx, ""), corpus.ErrSourceRequired)
}

func TestTaskStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	tasks := sampleTasks()
	require.NoError(t, store.PutTasks(ctx, tasks...))

	require.NoError(t, store.DeleteTasks(ctx, tasks[0].ID, 999))

	_, err := store.GetTask(ctx, tasks[0].ID)
	assert.ErrorIs(t, err, corpus.ErrNotFound)

	open, err := store.FetchCandidates(ctx, core.PropertyFilters{Status: &core.StatusFilter{Keys: []string{"open"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk"}, texts(open))
}

func TestTaskStore_CancelledContext(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.PutTasks(context.Background(), sampleTasks()...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.FetchCandidates(ctx, core.PropertyFilters{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTaskStore_Closed(t *testing.T) {
	tasks, _, backend, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = tasks.FetchCandidates(context.Background(), core.PropertyFilters{})
	assert.ErrorIs(t, err, corpus.ErrStorageClosed)
}

func TestNewStore_OwnsBackend(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutTasks(ctx, sampleTasks()[0]))
	require.NoError(t, store.Close())

	_, err = store.FetchCandidates(ctx, core.PropertyFilters{})
	assert.ErrorIs(t, err, corpus.ErrStorageClosed)
}

func TestCheckpointStore(t *testing.T) {
	_, checkpoints := newTestStore(t)
	ctx := context.Background()

	cp, err := checkpoints.LoadCheckpoint(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Nil(t, cp)

	modTime := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, &corpus.Checkpoint{
		Source: "notes/a.md", ModTime: modTime, Size: 120, TaskCount: 3,
	}))

	cp, err = checkpoints.LoadCheckpoint(ctx, "notes/a.md")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 3, cp.TaskCount)
	assert.True(t, cp.Unchanged(modTime, 120))
	assert.False(t, cp.Unchanged(modTime, 121))
	assert.False(t, cp.UpdatedAt.IsZero())

	assert.ErrorIs(t, checkpoints.SaveCheckpoint(ctx, &corpus.Checkpoint{}), corpus.ErrSourceRequired)
}

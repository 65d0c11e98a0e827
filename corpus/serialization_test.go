package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/core"
)

func TestMarshalTask_RoundTrip(t *testing.T) {
	due := time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)
	done := time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task core.Task
		want core.Task
	}{
		{
			name: "all fields",
			task: core.Task{
				ID:        42,
				Text:      "Write report 📅 2025-03-14",
				Location:  "work/a.md:3",
				Priority:  2,
				Due:       &due,
				Completed: &done,
				Status:    "open",
				Tags:      []string{"work", "写作"},
				Folder:    "work",
			},
			want: core.Task{
				ID:        42,
				Text:      "Write report 📅 2025-03-14",
				Location:  "work/a.md:3",
				Priority:  2,
				Due:       ptr(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)),
				Completed: &done,
				Status:    "open",
				Tags:      []string{"work", "写作"},
				Folder:    "work",
			},
		},
		{
			name: "minimal",
			task: core.Task{ID: 1 << 63, Text: "x", Location: "a.md:1"},
			want: core.Task{ID: 1 << 63, Text: "x", Location: "a.md:1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalTask(&tt.task)
			assert.Len(t, data, TaskMUS.Size(tt.task))

			got, err := UnmarshalTask(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)

			n, err := TaskMUS.Skip(data)
			require.NoError(t, err)
			assert.Equal(t, len(data), n)
		})
	}
}

func TestMarshalTask_DayInOtherZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	due := time.Date(2025, 3, 14, 1, 0, 0, 0, tokyo)

	got, err := UnmarshalTask(MarshalTask(&core.Task{ID: 7, Text: "x", Location: "a", Due: &due}))
	require.NoError(t, err)
	require.NotNil(t, got.Due)
	assert.Equal(t, "2025-03-14", FormatDay(got.Due))
}

func TestUnmarshalTask_Truncated(t *testing.T) {
	task := core.Task{ID: 9, Text: "Ship it", Location: "a.md:2", Tags: []string{"work", "home"}, Folder: "ops"}
	data := MarshalTask(&task)

	for _, n := range []int{0, 1, 4, len(data) - 1} {
		_, err := UnmarshalTask(data[:n])
		assert.ErrorIs(t, err, ErrSerializationFailed, "length %d", n)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDay("2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", FormatDay(d))
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDay("14/03/2025")
	assert.ErrorIs(t, err, ErrSerializationFailed)

	assert.Equal(t, "", FormatDay(nil))
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	mod := time.Date(2025, 3, 12, 9, 0, 0, 123456789, time.UTC)
	var missing *Checkpoint
	assert.False(t, missing.Unchanged(mod, 1))

	cp := &Checkpoint{
		Source:    "notes/a.md",
		ModTime:   mod,
		Size:      10,
		TaskCount: 3,
		UpdatedAt: time.Date(2025, 3, 12, 9, 5, 0, 1500, time.UTC),
	}
	got, err := UnmarshalCheckpoint(MarshalCheckpoint(cp))
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md", got.Source)
	assert.Equal(t, 3, got.TaskCount)
	assert.True(t, got.Unchanged(mod, 10))
	assert.False(t, got.Unchanged(mod.Add(time.Nanosecond), 10))
	assert.Equal(t, time.Date(2025, 3, 12, 9, 5, 0, 1000, time.UTC), got.UpdatedAt)

	_, err = UnmarshalCheckpoint([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func ptr[T any](v T) *T { return &v }

package ingestion

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/corpus/badger"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupImporter(t *testing.T, opts ...Option) (*Importer, *badger.TaskStore) {
	t.Helper()
	store, checkpoints, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	opts = append([]Option{WithCheckpoints(checkpoints), WithPoolSize(2)}, opts...)
	im, err := NewImporter(store, opts...)
	require.NoError(t, err)
	t.Cleanup(im.Release)
	return im, store
}

func allTasks(t *testing.T, store corpus.Store) []*core.Task {
	t.Helper()
	tasks, err := store.FetchCandidates(context.Background(), core.PropertyFilters{})
	require.NoError(t, err)
	return tasks
}

func TestNewImporter_Validation(t *testing.T) {
	_, err := NewImporter(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	store, _, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewImporter(store, WithExtensions())
	assert.Error(t, err)
}

func TestImporter_Import(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox.md", "- [ ] Call dentist 📅 2025-03-12\n- [x] Buy milk\n")
	writeFile(t, root, "work/plan.md", "# Plan\n- [ ] Ship release ⏫ #work\n")
	writeFile(t, root, "work/notes.txt", "- [ ] not imported\n")
	writeFile(t, root, ".obsidian/cache.md", "- [ ] hidden\n")

	im, store := setupImporter(t)
	report, err := im.Import(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 3, report.Tasks)
	assert.Empty(t, report.Errors)

	tasks := allTasks(t, store)
	require.Len(t, tasks, 3)

	texts := make([]string, 0, len(tasks))
	for _, task := range tasks {
		texts = append(texts, task.Text)
	}
	assert.ElementsMatch(t, []string{"Call dentist", "Buy milk", "Ship release #work"}, texts)

	count, err := store.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestImporter_Checkpoints(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "- [ ] One\n")
	writeFile(t, root, "b.md", "- [ ] Two\n")

	im, store := setupImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, root)
	require.NoError(t, err)

	t.Run("unchanged files are skipped", func(t *testing.T) {
		report, err := im.Import(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 0, report.Tasks)
		assert.Len(t, allTasks(t, store), 2)
	})

	t.Run("changed file replaces its tasks", func(t *testing.T) {
		writeFile(t, root, "a.md", "- [ ] One again\n- [ ] One more\n")

		report, err := im.Import(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 2, report.Tasks)

		tasks := allTasks(t, store)
		require.Len(t, tasks, 3)
		for _, task := range tasks {
			assert.NotEqual(t, "One", task.Text)
		}
	})
}

func TestImporter_Force(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "- [ ] One\n- [ ] Two\n")

	ctx := context.Background()
	im, store := setupImporter(t, WithForce(true))

	for range 2 {
		report, err := im.Import(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Skipped)
		assert.Equal(t, 2, report.Tasks)
	}
	assert.Len(t, allTasks(t, store), 2, "re-import must not duplicate tasks")
}

func TestImporter_Extensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "- [ ] Markdown\n")
	writeFile(t, root, "b.TXT", "- [ ] Text\n")

	im, store := setupImporter(t, WithExtensions("txt"))
	report, err := im.Import(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Files)
	tasks := allTasks(t, store)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Text", tasks[0].Text)
}

func TestImporter_Progress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "- [ ] One\n")

	var buf bytes.Buffer
	im, _ := setupImporter(t, WithProgress(&buf))
	_, err := im.Import(context.Background(), root)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Imported 1/1 files (100.0%): 1 tasks, 0 skipped, 0 failed")
}

func TestImporter_Errors(t *testing.T) {
	im, _ := setupImporter(t)
	ctx := context.Background()

	t.Run("missing root", func(t *testing.T) {
		_, err := im.Import(ctx, filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a.md", "- [ ] One\n")
		_, err := im.Import(ctx, filepath.Join(root, "a.md"))
		assert.ErrorIs(t, err, ErrNotADirectory)
	})

	t.Run("cancelled context is reported per file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a.md", "- [ ] One\n")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		report, err := im.Import(cancelled, root)
		require.NoError(t, err)
		require.Len(t, report.Errors, 1)
		assert.ErrorIs(t, report.Errors[0], context.Canceled)
	})
}

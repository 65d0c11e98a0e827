package taskrank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskrank/ai/mock"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/search"
)

func rulesOnly() *config.Config {
	return config.NewConfig(config.WithAIDisabled())
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendBadger, false},
		{"badger", BackendBadger, false},
		{"sqlite", BackendSQLite, false},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("badger on disk", func(t *testing.T) {
		engine, err := NewEngine(ctx, filepath.Join(t.TempDir(), "db"), WithConfig(rulesOnly()))
		require.NoError(t, err)
		defer engine.Close()

		assert.NotNil(t, engine.Store())
		assert.NotNil(t, engine.Checkpoints())
		assert.NotNil(t, engine.Parser())
		assert.Nil(t, engine.provider, "disabled AI builds no provider")
	})

	t.Run("sqlite", func(t *testing.T) {
		engine, err := NewEngine(ctx, filepath.Join(t.TempDir(), "tasks.db"),
			WithBackend(BackendSQLite), WithConfig(rulesOnly()))
		require.NoError(t, err)
		require.NoError(t, engine.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		engine, err := NewEngine(ctx, tmpFile, WithConfig(rulesOnly()))
		assert.Error(t, err)
		assert.Nil(t, engine)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewEngine(ctx, t.TempDir(), WithBackend("postgres"), WithConfig(rulesOnly()))
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := rulesOnly()
		cfg.MaxDirectResults = 0
		_, err := NewEngine(ctx, "", WithInMemory(), WithConfig(cfg))
		var verr *config.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("invalid glossary", func(t *testing.T) {
		categories := glossary.DefaultCategories()
		categories = append(categories, categories[0])
		_, err := NewEngine(ctx, "", WithInMemory(), WithConfig(rulesOnly()), WithGlossary(glossary.New(categories)))
		var verr *glossary.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewEngine(ctx, "", WithInMemory(), WithConfig(nil))
		assert.ErrorIs(t, err, ErrConfigRequired)
	})
}

func TestEngine_ClosesProvider(t *testing.T) {
	provider := mock.NewMockProviderWithServices(mock.NewMockAssistant(), mock.NewMockExpander(nil))

	engine, err := NewEngine(context.Background(), "", WithInMemory(), WithProvider(provider))
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	assert.True(t, provider.Closed())
}

func TestEngine_ImportAndSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "work"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "work", "plan.md"),
		[]byte("- [ ] Ship release ⏫ #work\n- [ ] Ship docs #work\n- [x] Plan party #home\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inbox.md"),
		[]byte("- [ ] Buy milk\n"), 0o644))

	for _, backend := range []Backend{BackendBadger, BackendSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			engine, err := NewEngine(ctx, filepath.Join(t.TempDir(), "corpus"),
				WithBackend(backend), WithConfig(rulesOnly()))
			require.NoError(t, err)
			defer engine.Close()

			importer, err := engine.NewImporter()
			require.NoError(t, err)
			defer importer.Release()

			report, err := importer.Import(ctx, root)
			require.NoError(t, err)
			assert.Equal(t, 4, report.Tasks)

			again, err := importer.Import(ctx, root)
			require.NoError(t, err)
			assert.Equal(t, 2, again.Skipped, "checkpoints are preset")

			searcher, err := engine.NewSearcher()
			require.NoError(t, err)

			result, err := searcher.Search(ctx, "ship #work")
			require.NoError(t, err)
			assert.Equal(t, search.StateRanked, result.State)

			texts := make([]string, 0, len(result.Tasks))
			for _, entry := range result.Tasks {
				texts = append(texts, entry.Task.Text)
			}
			assert.ElementsMatch(t, []string{"Ship release #work", "Ship docs #work"}, texts)
		})
	}
}

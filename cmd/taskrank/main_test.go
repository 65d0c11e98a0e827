package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"taskrank"}, args...))
	return out.String(), err
}

func findFlag(t *testing.T, cmd *cli.Command, name string) cli.Flag {
	t.Helper()
	for _, flag := range cmd.Flags {
		for _, n := range flag.Names() {
			if n == name {
				return flag
			}
		}
	}
	t.Fatalf("flag %q not found on %s", name, cmd.Name)
	return nil
}

func TestCommandFlags(t *testing.T) {
	app := newApp()
	commands := map[string]*cli.Command{}
	for _, cmd := range app.Commands {
		commands[cmd.Name] = cmd
	}

	t.Run("db is required", func(t *testing.T) {
		_, err := runApp(t, "query", "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("ai-host has default value", func(t *testing.T) {
		flag, ok := findFlag(t, commands["query"], "ai-host").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:11434/v1", flag.Value)
	})

	t.Run("backend defaults to badger", func(t *testing.T) {
		flag, ok := findFlag(t, commands["import"], "backend").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "badger", flag.Value)
	})

	t.Run("ai-token reads the environment", func(t *testing.T) {
		flag, ok := findFlag(t, commands["query"], "ai-token").(*cli.StringFlag)
		require.True(t, ok)
		assert.Contains(t, flag.EnvVars, "TASKRANK_AI_TOKEN")
	})
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warn", false},
		{"error", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := runApp(t, "--log-level", tt.level, "config", "check")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestImportAndQuery(t *testing.T) {
	notes := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(notes, "plan.md"),
		[]byte("- [ ] Ship release ⏫ #work\n- [ ] Ship docs #work\n- [ ] Buy milk\n"), 0o644))

	for _, backend := range []string{"badger", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			db := filepath.Join(t.TempDir(), "corpus")

			out, err := runApp(t, "--log-level", "error", "import", "--db", db, "--backend", backend, notes)
			require.NoError(t, err)
			assert.Contains(t, out, "Tasks imported: 3")
			assert.Contains(t, out, "Tasks in corpus: 3")

			out, err = runApp(t, "--log-level", "error", "query", "--db", db, "--backend", backend, "--no-ai", "ship", "#work")
			require.NoError(t, err)

			var got struct {
				State       string `json:"state"`
				Diagnostics struct {
					Outcome string `json:"outcome"`
					QueryID string `json:"queryId"`
				} `json:"diagnostics"`
				Results []struct {
					Text     string  `json:"text"`
					Location string  `json:"location"`
					Score    float64 `json:"score"`
				} `json:"results"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &got))

			assert.Equal(t, "ranked", got.State)
			assert.Equal(t, "succeeded-fallback", got.Diagnostics.Outcome)
			assert.Len(t, got.Diagnostics.QueryID, 26)
			require.Len(t, got.Results, 2)
			for _, r := range got.Results {
				assert.Contains(t, r.Text, "Ship")
				assert.Positive(t, r.Score)
			}
		})
	}

	t.Run("query is required", func(t *testing.T) {
		_, err := runApp(t, "query", "--db", filepath.Join(t.TempDir(), "corpus"), "--no-ai")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := runApp(t, "import", "--db", filepath.Join(t.TempDir(), "corpus"), "--backend", "postgres", notes)
		require.Error(t, err)
	})
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("maxDirectResults: 0\nvaguenessThreshold: 3\n"), 0o644))

	t.Run("default config is valid", func(t *testing.T) {
		out, err := runApp(t, "config", "check")
		require.NoError(t, err)
		assert.Contains(t, out, "config is valid")
	})

	t.Run("invalid config is reported", func(t *testing.T) {
		_, err := runApp(t, "--config", bad, "config", "check")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maxDirectResults")
	})

	t.Run("repair prints a fixed config", func(t *testing.T) {
		out, err := runApp(t, "--config", bad, "config", "check", "--repair")
		require.NoError(t, err)
		assert.Contains(t, out, "maxDirectResults: 20")
		assert.Contains(t, out, "vaguenessThreshold: 0.7")
	})
}

func TestGlossaryCheck(t *testing.T) {
	dir := t.TempDir()
	conflicting := filepath.Join(dir, "glossary.yaml")
	require.NoError(t, os.WriteFile(conflicting, []byte(`categories:
  - key: doing
    kind: status
    aliases: [doing]
    markers: ["/"]
    weight: 1
    position: 10
  - key: open
    kind: status
    aliases: [open]
    markers: [" "]
    weight: 0.8
    position: 10
`), 0o644))

	t.Run("default glossary is valid", func(t *testing.T) {
		out, err := runApp(t, "glossary", "check")
		require.NoError(t, err)
		assert.Contains(t, out, "glossary is valid")
	})

	t.Run("position conflict is reported", func(t *testing.T) {
		_, err := runApp(t, "--glossary", conflicting, "glossary", "check")
		require.Error(t, err)
	})

	t.Run("repair renumbers positions", func(t *testing.T) {
		out, err := runApp(t, "--glossary", conflicting, "glossary", "check", "--repair")
		require.NoError(t, err)
		assert.Contains(t, out, "position: 10")
		assert.Contains(t, out, "position: 20")
	})
}

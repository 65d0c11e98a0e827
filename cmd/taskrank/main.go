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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/taskrank"
	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/ingestion"
	"github.com/poiesic/taskrank/rank"
	"github.com/poiesic/taskrank/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "taskrank",
		Usage: "Interpret free-text task queries and rank matching tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML ranking config",
				EnvVars: []string{"TASKRANK_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "glossary",
				Aliases: []string{"g"},
				Usage:   "Path to a YAML status and priority glossary",
				EnvVars: []string{"TASKRANK_GLOSSARY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Rank tasks matching a free-text query",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "ai-host",
						Usage: "Language assist service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "ai-model",
						Usage: "Language assist chat model",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:    "ai-token",
						Usage:   "Language assist API key",
						EnvVars: []string{"TASKRANK_AI_TOKEN"},
					},
					&cli.BoolFlag{
						Name:  "no-ai",
						Usage: "Interpret the query with the rule parser only",
					},
					&cli.BoolFlag{
						Name:  "summary",
						Usage: "Print the summarizer list instead of the direct results",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Log each pipeline stage at debug level",
					},
				),
			},
			{
				Name:      "import",
				Usage:     "Import markdown task files from a directory",
				ArgsUsage: "<dir>",
				Action:    importCommand,
				Flags: append(storeFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-import files even when unchanged",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files parsed concurrently",
						Value: 4,
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to import",
						Value: cli.NewStringSlice("md", "markdown"),
					},
				),
			},
			{
				Name:  "glossary",
				Usage: "Inspect the status and priority glossary",
				Subcommands: []*cli.Command{
					{
						Name:   "check",
						Usage:  "Validate the glossary and optionally repair it",
						Action: glossaryCheckCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "repair",
								Usage: "Print a repaired glossary to stdout",
							},
						},
					},
				},
			},
			{
				Name:  "config",
				Usage: "Inspect the ranking config",
				Subcommands: []*cli.Command{
					{
						Name:   "check",
						Usage:  "Validate the config and optionally repair it",
						Action: configCheckCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "repair",
								Usage: "Print a repaired config to stdout",
							},
						},
					},
				},
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the task corpus (badger directory or sqlite file)",
			EnvVars:  []string{"TASKRANK_DB"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Corpus storage engine (badger, sqlite)",
			Value: string(taskrank.BackendBadger),
		},
	}
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, g, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.Bool("no-ai") {
		cfg.DisableAI = true
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithModel(c.String("ai-model")),
		ai.WithToken(c.String("ai-token")),
	)
	if !cfg.DisableAI {
		if err := aiConfig.Validate(); err != nil {
			return err
		}
	}

	engine, err := openEngine(ctx, c, cfg, g, taskrank.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher()
	if err != nil {
		return err
	}

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = search.NewLogMonitor(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	result, err := searcher.SearchWithMonitor(ctx, query, monitor)
	if err != nil {
		return err
	}

	entries := result.Tasks
	if c.Bool("summary") {
		entries = result.Summary
	}
	return writeJSON(c.App.Writer, newQueryOutput(result, entries))
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	root := c.Args().First()
	if root == "" {
		return fmt.Errorf("directory is required")
	}

	cfg, g, err := loadSettings(c)
	if err != nil {
		return err
	}
	cfg.DisableAI = true

	engine, err := openEngine(ctx, c, cfg, g)
	if err != nil {
		return err
	}
	defer engine.Close()

	importer, err := engine.NewImporter(
		ingestion.WithPoolSize(c.Int("workers")),
		ingestion.WithExtensions(c.StringSlice("ext")...),
		ingestion.WithForce(c.Bool("force")),
		ingestion.WithProgress(c.App.ErrWriter),
	)
	if err != nil {
		return err
	}
	defer importer.Release()

	report, err := importer.Import(ctx, root)
	if err != nil {
		return err
	}
	for _, fileErr := range report.Errors {
		slog.Warn("file not imported", "err", fileErr)
	}

	total, err := engine.Store().CountTasks(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Files: %d (skipped %d, failed %d)\nTasks imported: %d\nTasks in corpus: %d\n",
		report.Files, report.Skipped, len(report.Errors), report.Tasks, total)
	return nil
}

func glossaryCheckCommand(c *cli.Context) error {
	g, err := loadGlossary(c.String("glossary"))
	if err != nil {
		return err
	}

	verr := g.Validate()
	if !c.Bool("repair") {
		if verr != nil {
			return verr
		}
		fmt.Fprintln(c.App.Writer, "glossary is valid")
		return nil
	}

	// Issues Repair cannot fix come back as err after the partial repair.
	repaired, report, repairErr := g.Repair()
	for _, change := range report.Changes {
		fmt.Fprintln(c.App.ErrWriter, "repaired:", change)
	}
	if err := writeYAML(c.App.Writer, repaired); err != nil {
		return err
	}
	return repairErr
}

func configCheckCommand(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	verr := cfg.Validate()
	if !c.Bool("repair") {
		if verr != nil {
			return verr
		}
		fmt.Fprintln(c.App.Writer, "config is valid")
		return nil
	}

	repaired, changes := cfg.Repair()
	for _, change := range changes {
		fmt.Fprintln(c.App.ErrWriter, "repaired:", change)
	}
	return writeYAML(c.App.Writer, repaired)
}

func openEngine(ctx context.Context, c *cli.Context, cfg *config.Config, g *glossary.Glossary, opts ...taskrank.EngineOption) (*taskrank.Engine, error) {
	backend, err := taskrank.ParseBackend(c.String("backend"))
	if err != nil {
		return nil, err
	}
	opts = append([]taskrank.EngineOption{
		taskrank.WithBackend(backend),
		taskrank.WithConfig(cfg),
		taskrank.WithGlossary(g),
	}, opts...)
	return taskrank.NewEngine(ctx, c.String("db"), opts...)
}

func loadSettings(c *cli.Context) (*config.Config, *glossary.Glossary, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	g, err := loadGlossary(c.String("glossary"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, g, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func loadGlossary(path string) (*glossary.Glossary, error) {
	if path == "" {
		return glossary.Default(), nil
	}
	return glossary.Load(path)
}

type taskOutput struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Location  string          `json:"location"`
	Priority  int             `json:"priority,omitempty"`
	Due       string          `json:"due,omitempty"`
	Status    string          `json:"status,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Folder    string          `json:"folder,omitempty"`
	Score     float64         `json:"score"`
	Breakdown json.RawMessage `json:"breakdown"`
}

type queryOutput struct {
	State       search.State       `json:"state"`
	Query       json.RawMessage    `json:"query"`
	Diagnostics search.Diagnostics `json:"diagnostics"`
	Results     []taskOutput       `json:"results"`
}

func newQueryOutput(result *search.Result, entries []rank.Entry) queryOutput {
	out := queryOutput{
		State:       result.State,
		Diagnostics: result.Diagnostics,
		Results:     make([]taskOutput, 0, len(entries)),
	}
	if q, err := json.Marshal(result.Query); err == nil {
		out.Query = q
	}
	for _, e := range entries {
		breakdown, err := json.Marshal(e.Breakdown)
		if err != nil {
			slog.Warn("error encoding score breakdown", "task", e.Task.ID, "err", err)
		}
		out.Results = append(out.Results, taskOutput{
			ID:        fmt.Sprintf("%016x", uint64(e.Task.ID)),
			Text:      e.Task.Text,
			Location:  e.Task.Location,
			Priority:  e.Task.Priority,
			Due:       corpus.FormatDay(e.Task.Due),
			Status:    e.Task.Status,
			Tags:      e.Task.Tags,
			Folder:    e.Task.Folder,
			Score:     e.Score(),
			Breakdown: breakdown,
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

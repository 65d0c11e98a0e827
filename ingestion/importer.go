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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/glossary"
)

// Report summarizes one import run.
type Report struct {
	Files   int     // markdown files found
	Skipped int     // unchanged since their checkpoint
	Tasks   int     // tasks stored from imported files
	Errors  []error // per-file failures; the rest of the run continues
}

// Importer loads markdown task files into a corpus store. Each file
// replaces every task previously imported from it, so re-imports are
// idempotent.
type Importer struct {
	store       corpus.Store
	checkpoints corpus.CheckpointStore
	parser      *MarkdownParser
	pool        *ants.Pool
	extensions  []string
	progress    io.Writer
	force       bool
	logger      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the worker pool size for concurrent file parsing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}
		if im.pool != nil {
			im.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		im.pool = pool
		return nil
	}
}

// WithCheckpoints skips files whose size and modification time match their
// last import.
func WithCheckpoints(checkpoints corpus.CheckpointStore) Option {
	return func(im *Importer) error {
		im.checkpoints = checkpoints
		return nil
	}
}

// WithGlossary sets the glossary resolving checkbox and priority markers.
func WithGlossary(g *glossary.Glossary) Option {
	return func(im *Importer) error {
		im.parser = NewMarkdownParser(g)
		return nil
	}
}

// WithExtensions sets the file extensions to import.
// Default is .md and .markdown.
func WithExtensions(exts ...string) Option {
	return func(im *Importer) error {
		if len(exts) == 0 {
			return errors.New("at least one extension is required")
		}
		im.extensions = make([]string, len(exts))
		for i, ext := range exts {
			im.extensions[i] = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
		}
		return nil
	}
}

// WithProgress writes progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) error {
		im.progress = w
		return nil
	}
}

// WithForce re-imports files even when their checkpoint is current.
func WithForce(force bool) Option {
	return func(im *Importer) error {
		im.force = force
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates a new markdown importer.
func NewImporter(store corpus.Store, opts ...Option) (*Importer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	im := &Importer{
		store:      store,
		parser:     NewMarkdownParser(nil),
		pool:       pool,
		extensions: []string{".md", ".markdown"},
		logger:     slog.Default().With("component", "importer"),
	}

	for _, opt := range opts {
		if optErr := opt(im); optErr != nil {
			im.Release()
			return nil, optErr
		}
	}

	return im, nil
}

// Import walks root and imports every matching file. Hidden directories
// such as .git and .obsidian are skipped. Per-file failures are collected
// in the report; only a failure to walk root is returned as an error.
func (im *Importer) Import(ctx context.Context, root string) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	files, err := im.collect(root)
	if err != nil {
		return nil, err
	}

	tracker := NewProgressTracker(im.progress, len(files), max(len(files)/20, 1))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(n int, skipped bool, err error) {
		tracker.Record(n, skipped, err)
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	for _, file := range files {
		wg.Add(1)
		submitErr := im.pool.Submit(func() {
			defer wg.Done()
			n, skipped, err := im.importFile(ctx, root, file)
			record(n, skipped, err)
		})
		if submitErr != nil {
			wg.Done()
			record(0, false, submitErr)
		}
	}
	wg.Wait()

	final := tracker.Finish()
	report := &Report{
		Files:   final.Total,
		Skipped: final.Skipped,
		Tasks:   final.Tasks,
		Errors:  errs,
	}
	im.logger.Info("import complete",
		"root", root,
		"files", report.Files,
		"skipped", report.Skipped,
		"tasks", report.Tasks,
		"failed", len(report.Errors),
		"elapsed", final.Elapsed)
	return report, nil
}

func (im *Importer) collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(im.extensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// importFile returns the number of tasks stored and whether the file was
// skipped as unchanged.
func (im *Importer) importFile(ctx context.Context, root, file string) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	rel, err := filepath.Rel(root, file)
	if err != nil {
		return 0, false, err
	}
	source := filepath.ToSlash(rel)

	info, err := os.Stat(file)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %w", ErrReadFailed, source, err)
	}

	if im.checkpoints != nil && !im.force {
		cp, err := im.checkpoints.LoadCheckpoint(ctx, source)
		if err != nil {
			im.logger.Warn("error loading checkpoint", "source", source, "err", err)
		} else if cp.Unchanged(info.ModTime(), info.Size()) {
			im.logger.Debug("source unchanged, skipping", "source", source)
			return 0, true, nil
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %w", ErrReadFailed, source, err)
	}
	defer f.Close()

	tasks, err := im.parser.Parse(source, f)
	if err != nil {
		return 0, false, err
	}

	if err := im.store.ReplaceSource(ctx, source, tasks...); err != nil {
		im.logger.Error("error storing tasks", "source", source, "err", err)
		return 0, false, fmt.Errorf("storing %s: %w", source, err)
	}

	if im.checkpoints != nil {
		err := im.checkpoints.SaveCheckpoint(ctx, &corpus.Checkpoint{
			Source:    source,
			ModTime:   info.ModTime(),
			Size:      info.Size(),
			TaskCount: len(tasks),
		})
		if err != nil {
			im.logger.Warn("error saving checkpoint", "source", source, "err", err)
		}
	}

	im.logger.Debug("imported source", "source", source, "tasks", len(tasks))
	return len(tasks), false, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

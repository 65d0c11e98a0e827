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

// Package taskrank interprets free-text task queries and ranks matching tasks
// from a local task corpus.
//
// An Engine wires the pieces together: a corpus store (badger or sqlite), the
// glossary and ranking config, an optional language assist provider, the
// query parser, the searcher and the markdown importer.
//
//	engine, err := taskrank.NewEngine(ctx, "~/.taskrank/db",
//	    taskrank.WithAIConfig(ai.NewConfig(ai.WithModel("qwen2.5:3b"))))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	searcher, err := engine.NewSearcher()
//	result, err := searcher.Search(ctx, "urgent tasks due this week")
package taskrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/ai/openai"
	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/corpus/badger"
	"github.com/poiesic/taskrank/corpus/sqlite"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/ingestion"
	"github.com/poiesic/taskrank/parse"
	"github.com/poiesic/taskrank/search"
)

// Backend names a corpus storage engine.
type Backend string

const (
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend maps a backend name to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendBadger, "":
		return BackendBadger, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

type Engine struct {
	store       corpus.Store
	checkpoints corpus.CheckpointStore
	closeStore  func() error
	glossary    *glossary.Glossary
	config      *config.Config
	provider    ai.Provider
	parser      *parse.Parser
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	backend  Backend
	inMemory bool
	config   *config.Config
	glossary *glossary.Glossary
	aiConfig *ai.Config
	provider ai.Provider
	logger   *slog.Logger
}

// WithBackend selects the storage engine.
// Default is BackendBadger.
func WithBackend(b Backend) EngineOption {
	return func(o *engineOptions) {
		o.backend = b
	}
}

// WithInMemory keeps the badger corpus in memory. The path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithConfig sets the ranking config.
// Default is config.DefaultConfig().
func WithConfig(cfg *config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithGlossary sets the status and priority glossary.
// Default is glossary.Default().
func WithGlossary(g *glossary.Glossary) EngineOption {
	return func(o *engineOptions) {
		o.glossary = g
	}
}

// WithAIConfig sets the settings of the OpenAI-compatible provider.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of building an OpenAI-compatible one.
// The engine closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the corpus at path and builds the query pipeline. The
// config and glossary are validated first; invalid ones are rejected with
// their *ValidationError. No provider is built when the config disables AI.
func NewEngine(ctx context.Context, path string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		backend:  BackendBadger,
		config:   config.DefaultConfig(),
		glossary: glossary.Default(),
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.config == nil {
		return nil, ErrConfigRequired
	}
	if options.glossary == nil {
		return nil, ErrGlossaryRequired
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := options.config.Validate(); err != nil {
		return nil, err
	}
	if err := options.glossary.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		glossary: options.glossary,
		config:   options.config,
		logger:   options.logger.With("component", "engine"),
	}

	if err := e.openStore(ctx, path, options); err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil && !options.config.DisableAI {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			e.closeStore()
			return nil, err
		}
	}
	e.provider = provider

	parserOpts := []parse.Option{parse.WithProvider(provider), parse.WithLogger(options.logger)}
	if options.aiConfig != nil {
		parserOpts = append(parserOpts, parse.WithRetryDelay(options.aiConfig.RetryDelay))
	}
	parser, err := parse.NewParser(e.glossary, e.config, parserOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.parser = parser

	return e, nil
}

func (e *Engine) openStore(ctx context.Context, path string, options *engineOptions) error {
	switch options.backend {
	case BackendBadger:
		backendOpts := []badger.BackendOption{badger.WithBackendLogger(options.logger)}
		if options.inMemory {
			backendOpts = append(backendOpts, badger.InMemory())
		}
		backend, err := badger.OpenBackend(path, backendOpts...)
		if err != nil {
			return err
		}
		store, err := badger.NewTaskStore(backend)
		if err != nil {
			backend.Close()
			return err
		}
		e.store = store
		e.checkpoints = badger.NewCheckpointStore(backend)
		e.closeStore = func() error {
			return errors.Join(store.Close(), backend.Close())
		}
	case BackendSQLite:
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return err
		}
		e.store = store
		e.checkpoints = store
		e.closeStore = store.Close
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, options.backend)
	}
	return nil
}

// Close releases the provider and the corpus.
func (e *Engine) Close() error {
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := e.closeStore(); err != nil {
		e.logger.Error("error closing corpus", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Store() corpus.Store {
	return e.store
}

func (e *Engine) Checkpoints() corpus.CheckpointStore {
	return e.checkpoints
}

func (e *Engine) Glossary() *glossary.Glossary {
	return e.glossary
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Parser() *parse.Parser {
	return e.parser
}

// NewSearcher creates a searcher over the engine's corpus.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger.With("component", "searcher"))}, opts...)
	return search.NewSearcher(e.parser, e.store, e.config, e.glossary, opts...)
}

// NewImporter creates a markdown importer writing to the engine's corpus.
// Checkpoints and the glossary are preset; opts may override them.
func (e *Engine) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	opts = append([]ingestion.Option{
		ingestion.WithCheckpoints(e.checkpoints),
		ingestion.WithGlossary(e.glossary),
	}, opts...)
	return ingestion.NewImporter(e.store, opts...)
}

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

package search

import (
	"log/slog"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/parse"
	"github.com/poiesic/taskrank/rank"
)

// SearchMonitor receives callbacks at each stage of a search. Callbacks run
// on the searching goroutine; a monitor shared by SearchBatch must be safe
// for concurrent use.
type SearchMonitor interface {
	Start(query string)
	AfterParse(result *parse.Result)
	AfterFetch(candidates []*core.Task)
	AfterFilter(matched []*core.Task)
	Scored(entry rank.Entry)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)             {}
func (n *noopMonitor) AfterParse(_ *parse.Result) {}
func (n *noopMonitor) AfterFetch(_ []*core.Task)  {}
func (n *noopMonitor) AfterFilter(_ []*core.Task) {}
func (n *noopMonitor) Scored(_ rank.Entry)        {}
func (n *noopMonitor) Finish(_ *Result)           {}

// LogMonitor writes every stage to a logger at debug level, with one line
// per scored task. It is how the CLI explains a ranking.
type LogMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a monitor writing to logger, or slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search-monitor")}
}

func (m *LogMonitor) Start(query string) {
	m.logger.Debug("search started", "query", query)
}

func (m *LogMonitor) AfterParse(result *parse.Result) {
	m.logger.Debug("query parsed",
		"outcome", result.Outcome,
		"failure", result.Failure,
		"attempts", result.Attempts,
		"shorthand", result.Query.Shorthand(),
		"vague", result.Query.IsVague)
}

func (m *LogMonitor) AfterFetch(candidates []*core.Task) {
	m.logger.Debug("candidates fetched", "count", len(candidates))
}

func (m *LogMonitor) AfterFilter(matched []*core.Task) {
	m.logger.Debug("candidates filtered", "count", len(matched))
}

func (m *LogMonitor) Scored(entry rank.Entry) {
	b := entry.Breakdown
	m.logger.Debug("task scored",
		"task", entry.Task.Location,
		"final", b.Final,
		"relevance", b.Weighted.Relevance,
		"due", b.Weighted.DueDate,
		"priority", b.Weighted.Priority,
		"status", b.Weighted.Status)
}

func (m *LogMonitor) Finish(result *Result) {
	m.logger.Debug("search finished",
		"queryId", result.Diagnostics.QueryID.String(),
		"state", result.State,
		"tasks", len(result.Tasks))
}

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

package ai

import (
	"context"
	"time"

	"github.com/poiesic/taskrank/glossary"
)

// LanguageAssistant turns a raw query into a structured draft.
// Implementations must be thread-safe for concurrent use.
type LanguageAssistant interface {
	// Parse recognizes properties and keywords in req.Query. It must honor
	// ctx cancellation and deadlines. Errors should be *Failure values or
	// errors Classify can categorize.
	Parse(ctx context.Context, req ParseRequest) (*Draft, error)
}

// KeywordExpander proposes semantic equivalents for keywords.
// Implementations must be thread-safe for concurrent use.
type KeywordExpander interface {
	// ExpandKeywords returns up to perLanguage equivalents per keyword per
	// language, keyed by the input keyword.
	ExpandKeywords(ctx context.Context, req ExpandRequest) (map[string][]string, error)
}

// Provider aggregates the language assist services for lifecycle management.
type Provider interface {
	// Assistant returns the query parsing service.
	Assistant() LanguageAssistant

	// Expander returns the keyword expansion service.
	Expander() KeywordExpander

	// Close releases resources held by the provider and its services.
	Close() error
}

// ParseRequest carries the query and the context the model needs to map
// property words to canonical glossary keys.
type ParseRequest struct {
	Query                 string
	Categories            []glossary.Category
	Languages             []string
	ExpansionsPerLanguage int
	Today                 time.Time
}

// ExpandRequest asks for equivalents of already extracted keywords.
type ExpandRequest struct {
	Keywords    []string
	Languages   []string
	PerLanguage int
}

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

package mock

import (
	"context"
	"sync"

	"github.com/poiesic/taskrank/ai"
)

// MockExpander is a test double for ai.KeywordExpander.
type MockExpander struct {
	// ExpandKeywordsFunc allows customizing ExpandKeywords behavior.
	// If nil, the Expansions table is consulted.
	ExpandKeywordsFunc func(ctx context.Context, req ai.ExpandRequest) (map[string][]string, error)

	// Expansions is a fixed keyword to equivalents table.
	Expansions map[string][]string

	mu        sync.Mutex
	callCount int
}

// NewMockExpander creates a mock expander answering from table.
func NewMockExpander(table map[string][]string) *MockExpander {
	return &MockExpander{Expansions: table}
}

// WithExpandKeywordsFunc sets a custom ExpandKeywords function.
func (m *MockExpander) WithExpandKeywordsFunc(fn func(ctx context.Context, req ai.ExpandRequest) (map[string][]string, error)) *MockExpander {
	m.ExpandKeywordsFunc = fn
	return m
}

// ExpandKeywords returns the table entries for the requested keywords.
func (m *MockExpander) ExpandKeywords(ctx context.Context, req ai.ExpandRequest) (map[string][]string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.ExpandKeywordsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	out := make(map[string][]string, len(req.Keywords))
	for _, kw := range req.Keywords {
		if alts, ok := m.Expansions[kw]; ok {
			out[kw] = append([]string(nil), alts...)
		}
	}
	return out, nil
}

// CallCount returns the number of times ExpandKeywords was called.
func (m *MockExpander) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

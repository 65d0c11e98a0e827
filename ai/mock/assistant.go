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
	"strings"
	"sync"

	"github.com/poiesic/taskrank/ai"
)

// MockAssistant is a test double for ai.LanguageAssistant.
type MockAssistant struct {
	// ParseFunc allows customizing Parse behavior.
	// If nil, every word of the query becomes a core keyword.
	ParseFunc func(ctx context.Context, req ai.ParseRequest) (*ai.Draft, error)

	mu        sync.Mutex
	callCount int
	requests  []ai.ParseRequest
}

// NewMockAssistant creates a mock assistant with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAssistant() *MockAssistant {
	return &MockAssistant{}
}

// WithParseFunc sets a custom Parse function.
func (m *MockAssistant) WithParseFunc(fn func(ctx context.Context, req ai.ParseRequest) (*ai.Draft, error)) *MockAssistant {
	m.ParseFunc = fn
	return m
}

// WithDraft makes every call return a copy of d.
func (m *MockAssistant) WithDraft(d ai.Draft) *MockAssistant {
	return m.WithParseFunc(func(context.Context, ai.ParseRequest) (*ai.Draft, error) {
		out := d
		return &out, nil
	})
}

// WithError makes every call fail with err.
func (m *MockAssistant) WithError(err error) *MockAssistant {
	return m.WithParseFunc(func(context.Context, ai.ParseRequest) (*ai.Draft, error) {
		return nil, err
	})
}

// Parse records the request and returns the configured draft.
func (m *MockAssistant) Parse(ctx context.Context, req ai.ParseRequest) (*ai.Draft, error) {
	m.mu.Lock()
	m.callCount++
	m.requests = append(m.requests, req)
	fn := m.ParseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	confidence := 1.0
	return &ai.Draft{
		CoreKeywords: strings.Fields(strings.ToLower(req.Query)),
		Confidence:   &confidence,
	}, nil
}

// CallCount returns the number of times Parse was called.
func (m *MockAssistant) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, if any.
func (m *MockAssistant) LastRequest() (ai.ParseRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.ParseRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Reset clears the call count and custom functions.
func (m *MockAssistant) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.ParseFunc = nil
}

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

import "github.com/poiesic/taskrank/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock assistant and expander instances.
type MockProvider struct {
	assistant *MockAssistant
	expander  *MockExpander
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockAssistant()/GetMockExpander() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		assistant: NewMockAssistant(),
		expander:  NewMockExpander(nil),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(assistant *MockAssistant, expander *MockExpander) *MockProvider {
	return &MockProvider{
		assistant: assistant,
		expander:  expander,
	}
}

// Assistant returns the mock assistant.
func (p *MockProvider) Assistant() ai.LanguageAssistant {
	return p.assistant
}

// Expander returns the mock expander.
func (p *MockProvider) Expander() ai.KeywordExpander {
	return p.expander
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockAssistant returns the underlying mock assistant for test assertions.
func (p *MockProvider) GetMockAssistant() *MockAssistant {
	return p.assistant
}

// GetMockExpander returns the underlying mock expander for test assertions.
func (p *MockProvider) GetMockExpander() *MockExpander {
	return p.expander
}

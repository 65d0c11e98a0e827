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

package openai

import (
	"log/slog"

	"github.com/poiesic/taskrank/ai"
	"github.com/tmc/langchaingo/llms"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages the assistant and expander instances, which share one client.
type Provider struct {
	config    *ai.Config
	assistant *Assistant
	expander  *Expander
	logger    *slog.Logger
}

// NewProvider creates a new language assist provider with OpenAI-compatible
// services. The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	model, err := newModel(config)
	if err != nil {
		return nil, err
	}
	return NewProviderWithModel(model, config)
}

// NewProviderWithModel creates a provider around an existing llms.Model,
// such as a fake model in tests or another langchaingo backend.
func NewProviderWithModel(model llms.Model, config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		assistant: newAssistant(model, config),
		expander:  newExpander(model, config),
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Assistant returns the query parsing service.
func (p *Provider) Assistant() ai.LanguageAssistant {
	return p.assistant
}

// Expander returns the keyword expansion service.
func (p *Provider) Expander() ai.KeywordExpander {
	return p.expander
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

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
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/taskrank/ai"
	"github.com/tmc/langchaingo/llms"
)

// Assistant implements ai.LanguageAssistant using OpenAI-compatible chat APIs.
type Assistant struct {
	client *chatClient
}

// newAssistant is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAssistant(model llms.Model, config *ai.Config) *Assistant {
	return &Assistant{
		client: &chatClient{
			model:     model,
			maxTokens: config.MaxTokens,
			logger:    slog.Default().With("component", "openai-assistant"),
		},
	}
}

// NewAssistant creates a query assistant using the provided configuration.
//
// Returns ai.LanguageAssistant interface to enforce abstraction.
func NewAssistant(config *ai.Config) (ai.LanguageAssistant, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	model, err := newModel(config)
	if err != nil {
		return nil, err
	}
	return newAssistant(model, config), nil
}

// Parse asks the model to interpret req.Query. The answer is shape-checked
// but not resolved against the glossary; that is the caller's job.
func (a *Assistant) Parse(ctx context.Context, req ai.ParseRequest) (*ai.Draft, error) {
	query := strings.TrimSpace(req.Query)

	text, err := a.client.complete(ctx, buildParsePrompt(req), query)
	if err != nil {
		return nil, err
	}

	draft, err := ai.DecodeDraft([]byte(text))
	if err != nil {
		a.client.logger.Warn("error parsing assistant response", "response", text, "err", err)
		return nil, err
	}

	a.client.logger.Debug("parsed query",
		"keywords", len(draft.CoreKeywords),
		"vague", draft.IsVague)
	return draft, nil
}

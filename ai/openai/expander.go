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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/taskrank/ai"
	"github.com/tmc/langchaingo/llms"
)

// Expander implements ai.KeywordExpander using OpenAI-compatible chat APIs.
type Expander struct {
	client *chatClient
}

func newExpander(model llms.Model, config *ai.Config) *Expander {
	return &Expander{
		client: &chatClient{
			model:     model,
			maxTokens: config.MaxTokens,
			logger:    slog.Default().With("component", "openai-expander"),
		},
	}
}

// NewExpander creates a keyword expander using the provided configuration.
//
// Returns ai.KeywordExpander interface to enforce abstraction.
func NewExpander(config *ai.Config) (ai.KeywordExpander, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	model, err := newModel(config)
	if err != nil {
		return nil, err
	}
	return newExpander(model, config), nil
}

// ExpandKeywords asks the model for equivalents of req.Keywords. Entries
// for words that were not requested are dropped.
func (e *Expander) ExpandKeywords(ctx context.Context, req ai.ExpandRequest) (map[string][]string, error) {
	if len(req.Keywords) == 0 {
		return map[string][]string{}, nil
	}

	input, err := json.Marshal(req.Keywords)
	if err != nil {
		return nil, err
	}

	text, err := e.client.complete(ctx, buildExpandPrompt(req), string(input))
	if err != nil {
		return nil, err
	}

	var answer map[string][]string
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		e.client.logger.Warn("error parsing expander response", "response", text, "err", err)
		return nil, &ai.Failure{Category: ai.FailureMalformedResponse, Err: fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)}
	}

	out := make(map[string][]string, len(req.Keywords))
	for _, kw := range req.Keywords {
		if alts, ok := answer[kw]; ok {
			out[kw] = alts
		}
	}
	return out, nil
}

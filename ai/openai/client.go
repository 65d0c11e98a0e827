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
	"fmt"
	"log/slog"

	"github.com/poiesic/taskrank/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// chatClient wraps an llms.Model with the call settings shared by the
// assistant and the expander.
type chatClient struct {
	model     llms.Model
	maxTokens int
	logger    *slog.Logger
}

func newModel(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
}

// complete sends one system and one user message and returns the cleaned
// JSON text of the first choice. Errors are *ai.Failure values.
func (c *chatClient) complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	response, err := c.model.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
		llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &ai.Failure{Category: ai.FailureTimeout, Err: fmt.Errorf("%w: %w", ctxErr, err)}
		}
		f := ai.NewFailure(openai.MapError(err))
		c.logger.Debug("failed to generate content", "category", f.Category, "err", err)
		return "", f
	}

	if response == nil || len(response.Choices) < 1 {
		return "", &ai.Failure{Category: ai.FailureMalformedResponse, Err: fmt.Errorf("%w: %w", ai.ErrMalformedResponse, ai.ErrEmptyResponse)}
	}

	text := stripFences(response.Choices[0].Content)
	text = extractObject(text)
	return repairJSON(text), nil
}

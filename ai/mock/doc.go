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

// Package mock provides test doubles for the language assist interfaces.
//
// # Usage
//
//	assistant := mock.NewMockAssistant().WithDraft(ai.Draft{
//	    CoreKeywords: []string{"report"},
//	    Confidence:   &confidence,
//	})
//
//	failing := mock.NewMockAssistant().WithError(&ai.Failure{Category: ai.FailureRateLimited})
//
//	// Check call counts
//	count := assistant.CallCount()
//
// # Default Behavior
//
//   - MockAssistant: every query word becomes a core keyword, confidence 1
//   - MockExpander: answers from a fixed table
//   - MockProvider: aggregates a mock assistant and expander
//
// All mocks are safe for concurrent use.
package mock

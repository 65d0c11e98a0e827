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

// Package ai defines the boundary to the language assist service used by
// taskrank to interpret free-text queries.
//
// # Interfaces
//
//   - LanguageAssistant: turns a raw query into a Draft (keywords, property
//     values, expansions, confidence)
//   - KeywordExpander: proposes semantic equivalents for keywords
//   - Provider: aggregates both for lifecycle management
//
// # Failures
//
// Every error from the service is reduced to one FailureCategory:
// bad-request, unauthorized, rate-limited, model-not-found, server-error,
// network-error, malformed-response or timeout. Each category carries a
// machine string and a remediation hint. Callers branch on the category;
// they never need to inspect provider error text.
//
//	draft, err := assistant.Parse(ctx, req)
//	if err != nil {
//	    category := ai.Classify(err)
//	    log.Info("falling back", "category", category, "hint", category.Remediation())
//	}
//
// RetryPolicy retries only rate-limited, server-error and network-error
// failures.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible chat APIs through langchaingo
//   - ai/mock: test doubles with call counting and injectable behavior
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and assert call counts.
package ai

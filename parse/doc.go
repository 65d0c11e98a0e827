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

// Package parse turns a raw query string into a core.StructuredQuery.
//
// # Rule-based parsing
//
// RuleParser tokenizes the query once into an immutable Tokens slice and
// runs a chain of Matchers over it. Each matcher recognizes one kind of
// shorthand and returns the match plus the remaining tokens:
//
//  1. connectors: and, or, &, |
//  2. priority: p1, priority 1, priority:any, has priority, high, ⏫
//  3. status: s:open, status:done,in-progress, [x], in progress
//  4. due: due today, due:<=2025-03-20, before friday, next 3 days, overdue
//  5. tags and folders: #work, tag:a,b, folder:projects/app
//
// Whatever is left, minus generic vocabulary, becomes the core keywords.
// The vagueness classifier then decides whether bare time words such as
// "today" are hard filters or only context. RuleParser never fails.
//
// # Language assist
//
// Parser asks an ai.LanguageAssistant first. The call is bounded by the
// configured timeout and retried at most once. Failures and answers below
// the confidence threshold fall back to the rule parser, and the Result
// records which of the three outcomes happened:
//
//	res := parser.Parse(ctx, "urgent bugs due this week", time.Now())
//	if res.UsedFallback() {
//	    log.Info("fallback", "outcome", res.Outcome, "category", res.Failure)
//	}
//
// Han text is segmented by forward maximum matching against the generic
// vocabulary, glossary aliases and time words.
package parse

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

// Package search runs task queries end to end.
//
// A Searcher interprets the raw query with parse.Parser (language assist
// first, rule-based fallback), asks a corpus.Provider for candidates,
// re-validates every property filter against each candidate, drops tasks
// that match none of the query's keywords, scores the rest and sorts them
// once. Result.Tasks and Result.Summary are prefixes of that single ranking.
//
// An empty answer is a state, not an error:
//
//	res, err := searcher.Search(ctx, "what should I do today")
//	if err != nil {
//	    return err // corpus failure
//	}
//	if res.State != search.StateRanked {
//	    fmt.Println("nothing to show:", res.State)
//	}
//
// SearchMonitor hooks expose each stage; LogMonitor logs them.
package search

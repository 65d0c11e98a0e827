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

package search

import "errors"

var (
	// ErrParserRequired is returned when a query parser is not provided.
	ErrParserRequired = errors.New("query parser required")

	// ErrCorpusRequired is returned when a corpus provider is not provided.
	ErrCorpusRequired = errors.New("corpus provider required")

	// ErrConfigRequired is returned when a configuration is not provided.
	ErrConfigRequired = errors.New("config required")

	// ErrCorpusFailed wraps errors returned by the corpus provider.
	ErrCorpusFailed = errors.New("corpus provider failed")
)

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

// Package expand bounds and deduplicates the semantic equivalents proposed
// for a query's core keywords.
//
// Each core keyword may gain at most ExpansionsPerLanguage × len(Languages)
// equivalents. The cap applies per keyword, not to the whole query.
// Expansion never removes a core keyword.
package expand

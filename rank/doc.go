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

// Package rank orders scored tasks deterministically.
//
// Tasks are sorted by final score, highest first. Scores within Epsilon of
// their neighbour are tied; a tie group is ordered by the configured
// criteria (due-date, priority, status, created, alphabetical) and then by
// task ID, so equal inputs always yield the same order.
package rank

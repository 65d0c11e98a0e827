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

// Package score computes the multi-factor score of a task for a structured
// query.
//
// Four components are computed independently:
//
//	relevance  coreRatio×0.2 + allRatio×1.0   [0, 1.2]
//	due date   overdue 1.5, ≤7d 1.0, ≤30d 0.5, later 0.2, none 0.1
//	priority   1: 1.0, 2: 0.75, 3: 0.5, 4: 0.2, none 0.1
//	status     glossary weight, 0.5 when unmapped
//
// The final score is the sum of component × coefficient × activation, where
// a dimension is active only when the query constrains it. A query that
// constrains nothing scores every task 0 and ordering falls through to the
// tie-break criteria.
package score

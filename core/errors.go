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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTask indicates a Task failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrEmptyText indicates the task Text field is empty.
	ErrEmptyText = errors.New("task text cannot be empty")

	// ErrEmptyLocation indicates the task Location field is empty.
	ErrEmptyLocation = errors.New("task location cannot be empty")

	// ErrInvalidPriority indicates a priority outside 1..4.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidDueFilter indicates a due-date filter that cannot be evaluated.
	ErrInvalidDueFilter = errors.New("invalid due date filter")

	// ErrUnknownDueSymbol indicates a symbolic due value outside the known set.
	ErrUnknownDueSymbol = errors.New("unknown due date symbol")

	// ErrUnknownRangeOp indicates a range operator outside the known set.
	ErrUnknownRangeOp = errors.New("unknown range operator")
)

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

import (
	"fmt"
)

// ValidateTask validates a Task according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Location must not be empty
//   - Priority must be 0 (unset) or within 1..4
//
// NOT validated:
//   - Status (unknown keys degrade to a neutral score)
//   - Dates (any calendar day is acceptable)
func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}

	if task.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyText)
	}

	if task.Location == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyLocation)
	}

	if task.Priority != PriorityNone {
		if err := ValidatePriority(task.Priority); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTask, err)
		}
	}

	return nil
}

// ValidatePriority checks that a priority level is within bounds.
func ValidatePriority(level int) error {
	if level < PriorityHighest || level > PriorityLowest {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, level)
	}
	return nil
}

// ValidateDueFilter checks that a due filter carries a known symbol or a
// known operator with a reference date.
func ValidateDueFilter(f DueFilter) error {
	switch v := f.(type) {
	case nil:
		return nil
	case DueSymbol:
		if _, err := ParseDueSymbol(string(v)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDueFilter, err)
		}
	case DueRange:
		if _, err := ParseRangeOp(string(v.Op)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDueFilter, err)
		}
		if v.Ref.IsZero() {
			return fmt.Errorf("%w: missing reference date", ErrInvalidDueFilter)
		}
	}
	return nil
}

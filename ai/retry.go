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

package ai

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds automatic retries of language assist calls. Only
// failures whose category is Retryable are attempted again.
type RetryPolicy struct {
	MaxAttempts int
	// Delay is the pause before the second attempt; it doubles after that.
	Delay  time.Duration
	Logger *slog.Logger
}

// Do runs op until it succeeds, returns a non-retryable failure, or the
// attempts run out. op receives the 1-based attempt number. When ctx ends
// between attempts the last failure is returned rather than ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	delay := p.Delay
	for attempt := 1; ; attempt++ {
		err := op(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Debug("language assist recovered", "attempt", attempt)
			}
			return nil
		}

		category := Classify(err)
		if !category.Retryable() || attempt == p.MaxAttempts {
			return err
		}
		logger.Debug("language assist failed, retrying",
			"attempt", attempt,
			"category", category,
			"delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
}

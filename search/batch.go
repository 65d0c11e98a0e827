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

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// SearchBatch runs independent queries concurrently on a worker pool.
// Results are returned in query order. A query whose corpus fetch failed
// has a nil result; the joined errors name each failed query.
func (s *Searcher) SearchBatch(ctx context.Context, queries []string) ([]*Result, error) {
	results := make([]*Result, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(queries)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, query := range queries {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			res, err := s.Search(ctx, query)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("query %d (%q): %w", i, query, err))
				mu.Unlock()
				return
			}
			results[i] = res
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("query %d (%q): %w", i, query, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()

	s.logger.Debug("batch complete", "queries", len(queries), "failed", len(errs))
	return results, errors.Join(errs...)
}

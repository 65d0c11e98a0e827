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

package corpus

import (
	"context"

	"github.com/poiesic/taskrank/core"
)

// Slice is a fixed in-memory corpus. It ignores filters entirely.
type Slice []*core.Task

var _ Provider = Slice(nil)

// FetchCandidates returns every task.
func (s Slice) FetchCandidates(ctx context.Context, _ core.PropertyFilters) ([]*core.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*core.Task, len(s))
	copy(out, s)
	return out, nil
}

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

package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a task store is not provided.
	ErrStoreRequired = errors.New("task store required")

	// ErrNotADirectory is returned when the import root is not a directory.
	ErrNotADirectory = errors.New("import root is not a directory")

	// ErrReadFailed wraps errors reading a source document.
	ErrReadFailed = errors.New("reading source failed")
)

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

// Package corpus defines the task corpus boundary used by taskrank.
//
// A Provider returns candidate tasks for a set of property filters. Stores
// may push filters down into their indexes, but pushdown is never trusted:
// the search pipeline re-validates every candidate with Filter.
//
// # Constructor Return Type Pattern
//
// badger.NewStore returns the corpus.Store interface. sqlite.Open returns
// the concrete *sqlite.Store because it is also a CheckpointStore:
//
//	store, err := badger.NewStore(path)   // corpus.Store
//	store, err := sqlite.Open(ctx, path)  // *sqlite.Store
//
// # Implementations
//
//   - corpus/badger: BadgerDB with status, due-date and source indexes
//   - corpus/sqlite: SQLite (modernc.org/sqlite) with SQL pushdown
//   - Slice: a fixed in-memory list, for tests and embedding
package corpus

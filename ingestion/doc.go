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

// Package ingestion imports markdown task lists into a task corpus.
//
// MarkdownParser recognizes checkbox list items ("- [ ] ...") and the
// metadata commonly attached to them:
//   - checkbox markers, resolved to status keys through the glossary
//   - priority emoji (🔺 ⏫ 🔼 🔽 ⏬) or any glossary priority marker
//   - dates after 📅 (due), ➕ (created) and ✅ (completed)
//   - dataview inline fields: [due:: 2025-01-10], [priority:: high]
//   - #tags, including nested ones such as #work/urgent
//
// Importer walks a directory tree and parses files concurrently on a worker
// pool. Each file replaces the tasks previously imported from it; with a
// CheckpointStore, unchanged files are skipped.
package ingestion

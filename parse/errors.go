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

package parse

import "errors"

var (
	// ErrGlossaryRequired is returned when a parser is built without a glossary.
	ErrGlossaryRequired = errors.New("glossary is required")

	// ErrConfigRequired is returned when a parser is built without a config.
	ErrConfigRequired = errors.New("config is required")

	// ErrInvalidDraft marks model output that failed validation against the
	// glossary or value bounds.
	ErrInvalidDraft = errors.New("invalid draft")
)

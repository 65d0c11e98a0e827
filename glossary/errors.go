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

package glossary

import "errors"

var (
	// ErrInvalidGlossary indicates the glossary violates one of its invariants.
	ErrInvalidGlossary = errors.New("invalid glossary")

	// ErrEmptyGlossary indicates a glossary file declared no categories.
	ErrEmptyGlossary = errors.New("glossary has no categories")
)

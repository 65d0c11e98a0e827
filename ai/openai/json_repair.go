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

package openai

// repairJSON attempts to fix common JSON formatting issues from LLM responses:
// keys missing their opening quote and trailing commas before a closing
// bracket. Text inside string values is left alone.
func repairJSON(s string) string {
	return dropTrailingCommas(quoteKeys(s))
}

// quoteKeys restores a missing opening quote before object keys.
// Example: `, isVague":` -> `, "isVague":`
func quoteKeys(s string) string {
	src := []rune(s)
	fixed := make([]rune, 0, len(src)+16)
	inString := false

	i := 0
	for i < len(src) {
		ch := src[i]
		if inString {
			fixed = append(fixed, ch)
			if ch == '\\' && i+1 < len(src) {
				fixed = append(fixed, src[i+1])
				i += 2
				continue
			}
			if ch == '"' {
				inString = false
			}
			i++
			continue
		}

		if ch == '"' {
			inString = true
			fixed = append(fixed, ch)
			i++
			continue
		}
		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++
		for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t' || src[i] == '\r') {
			fixed = append(fixed, src[i])
			i++
		}
		if i >= len(src) || !isLetter(src[i]) {
			continue
		}

		keyStart := i
		for i < len(src) && (isLetter(src[i]) || src[i] == '_' || (src[i] >= '0' && src[i] <= '9')) {
			i++
		}
		if i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
			fixed = append(fixed, '"')
			fixed = append(fixed, src[keyStart:i]...)
			fixed = append(fixed, '"')
			i++
			continue
		}
		fixed = append(fixed, src[keyStart:i]...)
	}
	return string(fixed)
}

// dropTrailingCommas removes a comma directly followed (modulo whitespace)
// by } or ].
func dropTrailingCommas(s string) string {
	src := []rune(s)
	fixed := make([]rune, 0, len(src))
	inString := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if inString {
			fixed = append(fixed, ch)
			if ch == '\\' && i+1 < len(src) {
				i++
				fixed = append(fixed, src[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\n' || src[j] == '\t' || src[j] == '\r') {
				j++
			}
			if j < len(src) && (src[j] == '}' || src[j] == ']') {
				continue
			}
		}
		fixed = append(fixed, ch)
	}
	return string(fixed)
}

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

import (
	"unicode"
	"unicode/utf8"
)

// maxWordRunes bounds dictionary entries considered by the segmenter.
const maxWordRunes = 8

// Segmenter splits runs of Han characters into words by forward maximum
// matching against a dictionary. Characters not covered by any entry are
// grouped into one word per unmatched stretch.
type Segmenter struct {
	words map[string]struct{}
}

type segment struct {
	text   string
	offset int
}

// NewSegmenter builds a segmenter from dictionary words. Entries without
// Han characters are ignored.
func NewSegmenter(words ...[]string) *Segmenter {
	s := &Segmenter{words: map[string]struct{}{}}
	for _, group := range words {
		for _, w := range group {
			if containsHan(w) && utf8.RuneCountInString(w) <= maxWordRunes {
				s.words[w] = struct{}{}
			}
		}
	}
	return s
}

// Segment splits a Han-only string. A nil Segmenter returns the whole run.
func (s *Segmenter) Segment(text string) []segment {
	if s == nil || len(s.words) == 0 {
		return []segment{{text: text}}
	}

	runes := []rune(text)
	offsets := make([]int, len(runes)+1)
	for i, r := range runes {
		offsets[i+1] = offsets[i] + utf8.RuneLen(r)
	}

	var out []segment
	unknownFrom := -1
	flushUnknown := func(to int) {
		if unknownFrom >= 0 {
			out = append(out, segment{text: string(runes[unknownFrom:to]), offset: offsets[unknownFrom]})
			unknownFrom = -1
		}
	}

	for i := 0; i < len(runes); {
		n := s.longestAt(runes, i)
		if n == 0 {
			if unknownFrom < 0 {
				unknownFrom = i
			}
			i++
			continue
		}
		flushUnknown(i)
		out = append(out, segment{text: string(runes[i : i+n]), offset: offsets[i]})
		i += n
	}
	flushUnknown(len(runes))
	return out
}

func (s *Segmenter) longestAt(runes []rune, i int) int {
	limit := min(maxWordRunes, len(runes)-i)
	for n := limit; n >= 1; n-- {
		if !unicode.Is(unicode.Han, runes[i+n-1]) {
			continue
		}
		if _, ok := s.words[string(runes[i:i+n])]; ok {
			return n
		}
	}
	return 0
}

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
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one word of a query. Text keeps the original spelling; Lower is
// the lowercase form matchers compare against. Start and End are byte
// offsets into the raw query.
type Token struct {
	Text  string
	Lower string
	Start int
	End   int
}

// Tokens is an immutable token sequence. Matchers never modify it; they
// return a new remainder instead.
type Tokens []Token

// Words returns the lowercase form of every token.
func (ts Tokens) Words() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Lower
	}
	return out
}

// without returns a copy of ts with the tokens in [i, j) removed.
func (ts Tokens) without(i, j int) Tokens {
	out := make(Tokens, 0, len(ts)-(j-i))
	out = append(out, ts[:i]...)
	return append(out, ts[j:]...)
}

// hasWords reports whether the tokens starting at i spell words.
func (ts Tokens) hasWords(i int, words []string) bool {
	if len(words) == 0 || i+len(words) > len(ts) {
		return false
	}
	for k, w := range words {
		if ts[i+k].Lower != w {
			return false
		}
	}
	return true
}

const edgePunct = "?!,.;:\"'“”‘’()[]{}<>。，？！；：、（）「」\ufe0f"

// Tokenize splits raw into tokens. Whitespace separates words; symbol runes
// such as priority emoji stand alone; surrounding punctuation is dropped
// unless the word is shorthand ("due:<=2025-01-01", "[x]"). Runs of Han
// characters are segmented with seg, which may be nil.
func Tokenize(raw string, seg *Segmenter) Tokens {
	var out Tokens
	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		start := i
		for i < len(raw) {
			r, size = utf8.DecodeRuneInString(raw[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		out = appendField(out, raw, start, i, seg)
	}
	return out
}

// appendField splits one whitespace-delimited field.
func appendField(out Tokens, raw string, start, end int, seg *Segmenter) Tokens {
	field := raw[start:end]
	if isBracketMarker(field) {
		return append(out, newToken(field, start))
	}

	// Symbol runes (emoji markers) become their own tokens.
	pieceStart := start
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if isStandaloneSymbol(r) {
			out = appendWord(out, raw, pieceStart, i, seg)
			out = append(out, newToken(raw[i:i+size], i))
			pieceStart = i + size
		}
		i += size
	}
	return appendWord(out, raw, pieceStart, end, seg)
}

// appendWord trims edge punctuation and segments Han runs.
func appendWord(out Tokens, raw string, start, end int, seg *Segmenter) Tokens {
	if start >= end {
		return out
	}
	word := raw[start:end]
	if !isShorthand(word) {
		trimmedLeft := strings.TrimLeft(word, edgePunct)
		start += len(word) - len(trimmedLeft)
		word = strings.TrimRight(trimmedLeft, edgePunct)
		end = start + len(word)
	}
	if word == "" {
		return out
	}
	if !containsHan(word) {
		return append(out, newToken(word, start))
	}
	return appendHanRuns(out, raw, start, end, seg)
}

// appendHanRuns splits a mixed word into Han and non-Han runs and segments
// the Han runs.
func appendHanRuns(out Tokens, raw string, start, end int, seg *Segmenter) Tokens {
	runStart := start
	runHan := false
	flush := func(to int) {
		if runStart >= to {
			return
		}
		text := raw[runStart:to]
		if runHan {
			for _, piece := range seg.Segment(text) {
				out = append(out, newToken(piece.text, runStart+piece.offset))
			}
			return
		}
		if t := strings.Trim(text, edgePunct); t != "" {
			out = append(out, newToken(t, runStart+strings.Index(text, t)))
		}
	}

	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(raw[i:])
		han := unicode.Is(unicode.Han, r)
		if i == start {
			runHan = han
		} else if han != runHan {
			flush(i)
			runStart = i
			runHan = han
		}
		i += size
	}
	flush(end)
	return out
}

func newToken(text string, start int) Token {
	return Token{Text: text, Lower: strings.ToLower(text), Start: start, End: start + len(text)}
}

// isShorthand reports words whose punctuation is meaningful.
func isShorthand(word string) bool {
	if strings.HasPrefix(word, "#") && len(word) > 1 {
		return true
	}
	i := strings.IndexByte(word, ':')
	return i > 0 && i < len(word)-1
}

// isBracketMarker reports checkbox-style markers such as "[x]" or "[/]".
func isBracketMarker(field string) bool {
	if !strings.HasPrefix(field, "[") || !strings.HasSuffix(field, "]") {
		return false
	}
	return utf8.RuneCountInString(field) == 3
}

func isStandaloneSymbol(r rune) bool {
	return unicode.Is(unicode.So, r)
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

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

package vague

import (
	"strings"
	"time"

	"github.com/poiesic/taskrank/core"
)

// DefaultThreshold is the generic-token ratio at which a query is vague.
const DefaultThreshold = 0.7

// Input is everything the classifier looks at. Tokens are the words left
// after the property matchers consumed their spans.
type Input struct {
	Tokens    []string
	Threshold float64

	// Due is the extracted due filter, if any. TimeWord is set when it came
	// from a bare relative time word rather than explicit "due" shorthand.
	Due      core.DueFilter
	TimeWord string

	// OtherFilters reports an explicit priority, status, tag or folder filter.
	OtherFilters bool

	// Hint marks the query vague up front, e.g. from a model's judgement.
	Hint bool

	Now time.Time
}

// Result is the classification outcome. Due is the filter to apply, which
// may have been relaxed from Input.Due.
type Result struct {
	Ratio       float64
	IsVague     bool
	Forced      bool
	Due         core.DueFilter
	TimeContext string
}

// Classifier decides whether a query is dominated by generic vocabulary.
type Classifier struct {
	vocab *Vocabulary
}

// NewClassifier creates a classifier over the generic vocabulary of langs.
func NewClassifier(langs []string) *Classifier {
	return &Classifier{vocab: NewVocabulary(langs)}
}

// Vocabulary returns the classifier's generic vocabulary.
func (c *Classifier) Vocabulary() *Vocabulary {
	return c.vocab
}

// Ratio returns generic tokens / total tokens, or 0 for no tokens.
func (c *Classifier) Ratio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	generic := 0
	for _, tok := range tokens {
		if c.vocab.IsGeneric(tok) {
			generic++
		}
	}
	return float64(generic) / float64(len(tokens))
}

// Classify computes the vagueness ratio and applies the time-word rules:
//   - a due filter that came from a bare relative time word, with no other
//     explicit property filter, forces the query vague
//   - when vague, a relative due symbol becomes TimeContext and its filter is
//     relaxed to "on or before the end of the period", whether it came from a
//     bare time word or from "due" shorthand
//
// Explicit due shorthand on a query that is not vague stays a hard filter.
func (c *Classifier) Classify(in Input) Result {
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	res := Result{Ratio: c.Ratio(in.Tokens), Due: in.Due}
	res.IsVague = in.Hint || res.Ratio >= threshold

	sym, isSymbol := in.Due.(core.DueSymbol)
	relative := isSymbol && sym.IsRelative()

	if relative && in.TimeWord != "" && !in.OtherFilters && !res.IsVague {
		res.IsVague = true
		res.Forced = true
	}

	if res.IsVague && relative {
		res.TimeContext = in.TimeWord
		if res.TimeContext == "" {
			res.TimeContext = strings.ReplaceAll(string(sym), "-", " ")
		}
		res.Due = sym.Permissive(in.Now)
	}
	return res
}

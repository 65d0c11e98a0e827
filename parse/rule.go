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
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/taskrank/config"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
	"github.com/poiesic/taskrank/vague"
)

// Analysis is the full trace of a rule-based parse.
type Analysis struct {
	Query      *core.StructuredQuery
	Tokens     Tokens
	Matches    []Match
	Remainder  Tokens
	Connectors []string

	// TimeWord is the bare relative time phrase the due filter came from,
	// before any vagueness relaxation.
	TimeWord string
	Ratio    float64
	Forced   bool
}

// RuleParser interprets explicit shorthand without calling any external
// service. It never fails and is safe for concurrent use.
type RuleParser struct {
	glossary   *glossary.Glossary
	classifier *vague.Classifier
	segmenter  *Segmenter
	matchers   []Matcher
	threshold  float64
}

// NewRuleParser builds a rule parser. A nil glossary or config selects the
// defaults.
func NewRuleParser(g *glossary.Glossary, cfg *config.Config) *RuleParser {
	if g == nil {
		g = glossary.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	classifier := vague.NewClassifier(cfg.Languages)
	timeWords := vague.TimeWords(cfg.Languages)
	r := &rules{
		glossary:  g,
		vocab:     classifier.Vocabulary(),
		timeWords: timeWords,
	}

	dictionary := [][]string{classifier.Vocabulary().Words()}
	for _, kind := range []glossary.Kind{glossary.KindStatus, glossary.KindPriority} {
		terms := g.Terms(kind)
		words := make([]string, len(terms))
		for i, t := range terms {
			words[i] = t.Text
		}
		dictionary = append(dictionary, words)
	}
	for _, tw := range timeWords {
		dictionary = append(dictionary, []string{strings.Join(tw.Words, "")})
	}
	connectorWords := make([]string, 0, len(connectors))
	for c := range connectors {
		connectorWords = append(connectorWords, c)
	}
	dictionary = append(dictionary, connectorWords)

	return &RuleParser{
		glossary:   g,
		classifier: classifier,
		segmenter:  NewSegmenter(dictionary...),
		matchers:   r.matchers(),
		threshold:  cfg.VaguenessThreshold,
	}
}

// Parse returns the structured query for raw.
func (p *RuleParser) Parse(raw string, now time.Time) *core.StructuredQuery {
	return p.Analyze(raw, now).Query
}

// Tokenize splits raw with the parser's segmenter.
func (p *RuleParser) Tokenize(raw string) Tokens {
	return Tokenize(raw, p.segmenter)
}

// Analyze runs the matcher chain and the vagueness classifier and returns
// every intermediate result.
func (p *RuleParser) Analyze(raw string, now time.Time) *Analysis {
	tokens := p.Tokenize(raw)
	a := &Analysis{Tokens: tokens}

	rest := tokens
	for _, m := range p.matchers {
		for {
			match, next, ok := m.Match(rest, now)
			if !ok {
				break
			}
			a.Matches = append(a.Matches, match)
			rest = next
		}
	}
	a.Remainder = rest

	filters := core.PropertyFilters{}
	for _, m := range a.Matches {
		switch m.Kind {
		case MatchConnector:
			a.Connectors = append(a.Connectors, m.Connector)
		case MatchPriority:
			if filters.Priority == nil {
				filters.Priority = m.Priority
			}
		case MatchStatus:
			if filters.Status == nil {
				filters.Status = &core.StatusFilter{}
			}
			for _, key := range m.Status {
				if !slices.Contains(filters.Status.Keys, key) {
					filters.Status.Keys = append(filters.Status.Keys, key)
				}
			}
		case MatchDue:
			if filters.Due == nil {
				filters.Due = m.Due
				a.TimeWord = m.TimeWord
			}
		case MatchTag:
			for _, tag := range m.Tags {
				if !slices.Contains(filters.Tags, tag) {
					filters.Tags = append(filters.Tags, tag)
				}
			}
		case MatchFolder:
			if filters.Folder == "" {
				filters.Folder = m.Folder
			}
		}
	}

	words := contentWords(rest)
	res := p.classifier.Classify(vague.Input{
		Tokens:       words,
		Threshold:    p.threshold,
		Due:          filters.Due,
		TimeWord:     a.TimeWord,
		OtherFilters: hasOtherFilters(filters),
		Now:          now,
	})
	filters.Due = res.Due
	a.Ratio = res.Ratio
	a.Forced = res.Forced

	keywords := p.keywords(words)
	a.Query = &core.StructuredQuery{
		Raw:              raw,
		CoreKeywords:     keywords,
		ExpandedKeywords: slices.Clone(keywords),
		Filters:          filters,
		IsVague:          res.IsVague,
		TimeContext:      res.TimeContext,
	}
	return a
}

// keywords drops generic words, single letters and duplicates.
func (p *RuleParser) keywords(words []string) []string {
	vocab := p.classifier.Vocabulary()
	out := []string{}
	for _, w := range words {
		if vocab.IsGeneric(w) || !isKeyword(w) || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func hasOtherFilters(f core.PropertyFilters) bool {
	return f.Priority != nil || f.Status != nil || len(f.Tags) > 0 || f.Folder != ""
}

// contentWords drops tokens that carry no letters or digits.
func contentWords(ts Tokens) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		if strings.IndexFunc(t.Lower, isWordRune) >= 0 {
			out = append(out, t.Lower)
		}
	}
	return out
}

// isKeyword requires two runes, or one Han character.
func isKeyword(w string) bool {
	if utf8.RuneCountInString(w) >= 2 {
		return true
	}
	return containsHan(w)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

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

import (
	"math"
	"slices"
	"sort"
	"strings"
)

// Kind distinguishes the property a category describes.
type Kind string

const (
	KindStatus   Kind = "status"
	KindPriority Kind = "priority"
)

// NeutralWeight is the status weight used for keys the glossary cannot resolve.
const NeutralWeight = 0.5

// unpositioned sorts categories without an explicit position after all
// explicitly positioned ones, in declaration order.
const unpositioned = math.MaxInt32

// Category is one glossary entry. Key is the stable identifier stored on
// tasks; DisplayName and Aliases may change freely.
type Category struct {
	Key         string   `yaml:"key" json:"key"`
	Kind        Kind     `yaml:"kind" json:"kind"`
	DisplayName string   `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Markers     []string `yaml:"markers,omitempty" json:"markers,omitempty"`
	Weight      float64  `yaml:"weight" json:"weight"`
	Position    *int     `yaml:"position,omitempty" json:"position,omitempty"`
	Level       int      `yaml:"level,omitempty" json:"level,omitempty"`
}

func (c Category) clone() Category {
	c.Aliases = slices.Clone(c.Aliases)
	c.Markers = slices.Clone(c.Markers)
	if c.Position != nil {
		p := *c.Position
		c.Position = &p
	}
	return c
}

// Term is a query-facing word or phrase that resolves to a category.
type Term struct {
	Text  string
	Words []string
	Key   string
	Kind  Kind
	Level int
}

// Glossary is an immutable set of categories with lookup indexes.
// Share it freely between goroutines.
type Glossary struct {
	categories []Category
	byKey      map[string]int
	byAlias    map[Kind]map[string]int
	byMarker   map[Kind]map[string]int
	terms      map[Kind][]Term
	rank       map[string]int
}

// New builds a glossary from categories. It never fails; call Validate to
// check the invariants.
func New(categories []Category) *Glossary {
	g := &Glossary{
		categories: make([]Category, len(categories)),
		byKey:      make(map[string]int, len(categories)),
		byAlias:    map[Kind]map[string]int{KindStatus: {}, KindPriority: {}},
		byMarker:   map[Kind]map[string]int{KindStatus: {}, KindPriority: {}},
		terms:      map[Kind][]Term{},
		rank:       make(map[string]int),
	}
	for i, c := range categories {
		g.categories[i] = c.clone()
	}

	for i, c := range g.categories {
		key := strings.ToLower(c.Key)
		if _, dup := g.byKey[key]; !dup {
			g.byKey[key] = i
		}
		aliases, ok := g.byAlias[c.Kind]
		if !ok {
			continue
		}
		for _, a := range c.Aliases {
			a = normalizeTerm(a)
			if a == "" {
				continue
			}
			if _, dup := aliases[a]; !dup {
				aliases[a] = i
			}
		}
		for _, m := range c.Markers {
			if m == "" {
				continue
			}
			if _, dup := g.byMarker[c.Kind][m]; !dup {
				g.byMarker[c.Kind][m] = i
			}
		}
	}

	for kind, aliases := range g.byAlias {
		terms := make([]Term, 0, len(aliases))
		for alias, i := range aliases {
			c := g.categories[i]
			terms = append(terms, Term{Text: alias, Words: strings.Fields(alias), Key: c.Key, Kind: kind, Level: c.Level})
		}
		// Longest phrases first so "in progress" wins over "progress".
		sort.Slice(terms, func(a, b int) bool {
			if len(terms[a].Words) != len(terms[b].Words) {
				return len(terms[a].Words) > len(terms[b].Words)
			}
			return terms[a].Text < terms[b].Text
		})
		g.terms[kind] = terms
	}

	g.buildRank()
	return g
}

func (g *Glossary) buildRank() {
	type entry struct {
		key   string
		pos   int
		index int
	}
	var entries []entry
	for i, c := range g.categories {
		if c.Kind != KindStatus {
			continue
		}
		pos := unpositioned
		if c.Position != nil {
			pos = *c.Position
		}
		entries = append(entries, entry{key: c.Key, pos: pos, index: i})
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].pos != entries[b].pos {
			return entries[a].pos < entries[b].pos
		}
		return entries[a].index < entries[b].index
	})
	for r, e := range entries {
		if _, dup := g.rank[e.key]; !dup {
			g.rank[e.key] = r
		}
	}
}

func normalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Categories returns a copy of every category in declaration order.
func (g *Glossary) Categories() []Category {
	out := make([]Category, len(g.categories))
	for i, c := range g.categories {
		out[i] = c.clone()
	}
	return out
}

// ByKind returns a copy of the categories of one kind in declaration order.
func (g *Glossary) ByKind(kind Kind) []Category {
	var out []Category
	for _, c := range g.categories {
		if c.Kind == kind {
			out = append(out, c.clone())
		}
	}
	return out
}

// Category looks up a category by its key.
func (g *Glossary) Category(key string) (Category, bool) {
	i, ok := g.byKey[strings.ToLower(key)]
	if !ok {
		return Category{}, false
	}
	return g.categories[i].clone(), true
}

// Resolve maps a key, alias, or raw marker to a category of the given kind.
func (g *Glossary) Resolve(kind Kind, term string) (Category, bool) {
	if i, ok := g.byMarker[kind][term]; ok {
		return g.categories[i].clone(), true
	}
	norm := normalizeTerm(term)
	if i, ok := g.byKey[norm]; ok && g.categories[i].Kind == kind {
		return g.categories[i].clone(), true
	}
	if i, ok := g.byAlias[kind][norm]; ok {
		return g.categories[i].clone(), true
	}
	if i, ok := g.byMarker[kind][strings.ToLower(term)]; ok {
		return g.categories[i].clone(), true
	}
	return Category{}, false
}

// ResolveStatus maps a status key, alias, or checkbox marker to its key.
func (g *Glossary) ResolveStatus(term string) (string, bool) {
	c, ok := g.Resolve(KindStatus, term)
	return c.Key, ok
}

// ResolvePriority maps a priority key, alias, or marker to its level.
func (g *Glossary) ResolvePriority(term string) (int, bool) {
	c, ok := g.Resolve(KindPriority, term)
	if !ok || c.Level == 0 {
		return 0, false
	}
	return c.Level, true
}

// Terms returns the aliases of a kind, longest phrases first.
func (g *Glossary) Terms(kind Kind) []Term {
	return slices.Clone(g.terms[kind])
}

// Markers returns every raw marker of a kind mapped to its category key.
func (g *Glossary) Markers(kind Kind) map[string]string {
	out := make(map[string]string, len(g.byMarker[kind]))
	for m, i := range g.byMarker[kind] {
		out[m] = g.categories[i].Key
	}
	return out
}

// StatusWeight returns the configured relevance weight of a status key, or
// NeutralWeight when the key is empty or unknown.
func (g *Glossary) StatusWeight(key string) float64 {
	if key == "" {
		return NeutralWeight
	}
	c, ok := g.Category(key)
	if !ok || c.Kind != KindStatus {
		return NeutralWeight
	}
	return c.Weight
}

// StatusRank returns the sort rank of a status key. Unknown keys report
// false and sort after every known status.
func (g *Glossary) StatusRank(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	c, ok := g.Category(key)
	if !ok {
		return 0, false
	}
	r, ok := g.rank[c.Key]
	return r, ok
}

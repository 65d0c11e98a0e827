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

package ingestion

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/corpus"
	"github.com/poiesic/taskrank/glossary"
)

var (
	// "- [ ] text", "* [x] text", "1. [/] text"
	taskLineRegex = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[(.)\]\s+(.*\S)\s*$`)

	// Dataview inline fields: [key:: value] or (key:: value)
	inlineFieldRegex = regexp.MustCompile(`[\[(]([A-Za-z]+)::\s*([^\])]*?)\s*[\])]`)

	// Emoji metadata followed by a date
	emojiDateRegex = regexp.MustCompile(`(📅|🗓️?|⏳|🛫|➕|✅|❌)\s*(\d{4}-\d{2}-\d{2})`)

	tagRegex = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_/-]+)`)

	spaceRegex = regexp.MustCompile(`\s{2,}`)
)

// MarkdownParser extracts checkbox tasks from markdown documents.
type MarkdownParser struct {
	statusMarkers   map[string]string
	priorityMarkers map[string]string
	glossary        *glossary.Glossary
}

// NewMarkdownParser creates a parser resolving checkbox and priority markers
// through g, or the default glossary.
func NewMarkdownParser(g *glossary.Glossary) *MarkdownParser {
	if g == nil {
		g = glossary.Default()
	}
	return &MarkdownParser{
		statusMarkers:   g.Markers(glossary.KindStatus),
		priorityMarkers: g.Markers(glossary.KindPriority),
		glossary:        g,
	}
}

// Parse reads every task line of the document at relPath, a slash
// separated path relative to the import root. Task locations are
// "relPath:line" and folders are the directory of relPath.
func (p *MarkdownParser) Parse(relPath string, r io.Reader) ([]*core.Task, error) {
	relPath = path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	folder := path.Dir(relPath)
	if folder == "." {
		folder = ""
	}

	var tasks []*core.Task
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		matches := taskLineRegex.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}
		t := p.parseTask(matches[1], matches[2])
		if t.Text == "" {
			continue
		}
		t.Location = fmt.Sprintf("%s:%d", relPath, lineNum)
		t.Folder = folder
		corpus.AssignID(t)
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, relPath, err)
	}
	return tasks, nil
}

func (p *MarkdownParser) parseTask(marker, body string) *core.Task {
	t := &core.Task{Status: p.statusMarkers[marker]}

	// Inline fields first so their values never look like tags.
	body = inlineFieldRegex.ReplaceAllStringFunc(body, func(field string) string {
		m := inlineFieldRegex.FindStringSubmatch(field)
		if !p.applyField(t, strings.ToLower(m[1]), m[2]) {
			return field
		}
		return " "
	})

	body = emojiDateRegex.ReplaceAllStringFunc(body, func(s string) string {
		m := emojiDateRegex.FindStringSubmatch(s)
		d, err := parseDay(m[2])
		if err != nil {
			return s
		}
		switch {
		case strings.HasPrefix(m[1], "📅"), strings.HasPrefix(m[1], "🗓"):
			t.Due = d
		case m[1] == "➕":
			t.Created = d
		case m[1] == "✅":
			t.Completed = d
		}
		return " "
	})

	for marker, key := range p.priorityMarkers {
		if !strings.Contains(body, marker) {
			continue
		}
		if level, ok := p.glossary.ResolvePriority(key); ok && (t.Priority == core.PriorityNone || level < t.Priority) {
			t.Priority = level
		}
		body = strings.ReplaceAll(body, marker, " ")
	}

	for _, m := range tagRegex.FindAllStringSubmatch(body, -1) {
		tag := core.NormalizeTag(m[1])
		if tag == "" || isNumber(tag) || slices.Contains(t.Tags, tag) {
			continue
		}
		t.Tags = append(t.Tags, tag)
	}

	t.Text = strings.TrimSpace(spaceRegex.ReplaceAllString(body, " "))
	return t
}

// applyField reports whether a dataview field was recognized and consumed.
func (p *MarkdownParser) applyField(t *core.Task, key, value string) bool {
	switch key {
	case "due":
		if d, err := parseDay(value); err == nil {
			t.Due = d
			return true
		}
	case "created":
		if d, err := parseDay(value); err == nil {
			t.Created = d
			return true
		}
	case "completion", "completed":
		if d, err := parseDay(value); err == nil {
			t.Completed = d
			return true
		}
	case "priority":
		if level, ok := p.priorityLevel(value); ok {
			t.Priority = level
			return true
		}
	}
	return false
}

func (p *MarkdownParser) priorityLevel(value string) (int, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(strings.TrimPrefix(value, "p")); err == nil {
		return n, core.ValidatePriority(n) == nil
	}
	return p.glossary.ResolvePriority(value)
}

func parseDay(s string) (*time.Time, error) {
	return corpus.ParseDay(strings.TrimSpace(s))
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

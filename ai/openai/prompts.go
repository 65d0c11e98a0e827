package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/taskrank/ai"
	"github.com/poiesic/taskrank/core"
	"github.com/poiesic/taskrank/glossary"
)

const parseResponseSchema = `{
  "type": "object",
  "properties": {
    "coreKeywords": {"type": "array", "items": {"type": "string"}},
    "expansions": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
    "priority": {"oneOf": [{"type": "integer", "minimum": 1, "maximum": 4}, {"const": "any"}, {"type": "null"}]},
    "due": {"oneOf": [
      {"enum": ["today", "tomorrow", "yesterday", "overdue", "this-week", "next-week", "this-month", "next-month", "any", "none"]},
      {"type": "object", "properties": {"operator": {"enum": ["before", "on-or-before", "after", "on-or-after", "on"]}, "date": {"type": "string", "format": "date"}}, "required": ["operator", "date"]},
      {"type": "null"}
    ]},
    "status": {"oneOf": [{"type": "array", "items": {"type": "string"}}, {"type": "null"}]},
    "tags": {"type": "array", "items": {"type": "string"}},
    "folder": {"type": "string"},
    "isVague": {"type": "boolean"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["coreKeywords", "priority", "due", "status", "isVague", "confidence"]
}`

const parsePromptTemplate = `You interpret search queries over a personal task list and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Today is %s (%s).

Status values. Use only these keys:
%s

Priority levels. 1 is the most urgent:
%s

Rules:
- coreKeywords are the content words of the query with property words, time words, filler words and generic words like "task" or "todo" removed.
- expansions maps each core keyword to at most %d equivalents per language for these languages: %s. Include synonyms and translations, never the keyword itself.
- priority is a level, "any" when the query asks for tasks that have some priority, or null.
- due is a symbolic value ("any" means has a due date, "none" means no due date), an operator with a YYYY-MM-DD date, or null. "before Friday" becomes {"operator":"before","date":"..."}.
- status is an array of the keys above, or null. Never invent a key.
- isVague is true when the query has no concrete subject, e.g. "what should I do today".
- confidence is how sure you are of the whole interpretation, from 0 to 1.
- The JSON must parse without errors; no trailing commas and no extraneous text outside the object.

Example:
Input: "urgent bugs in the auth module due this week"
Output:
{"coreKeywords":["bug","auth","module"],"expansions":{"bug":["defect","issue"]},"priority":1,"due":"this-week","status":null,"tags":[],"folder":"","isVague":false,"confidence":0.9}

Example:
Input: "what should I work on today"
Output:
{"coreKeywords":[],"expansions":{},"priority":null,"due":"today","status":null,"tags":[],"folder":"","isVague":true,"confidence":0.8}`

const expandPromptTemplate = `You propose search equivalents for keywords and return them as JSON.

Output ONLY a JSON object mapping every input keyword to an array of equivalents. Do not include any preamble.
Give at most %d equivalents per language for these languages: %s. Include synonyms and translations,
never the keyword itself, and no duplicates.

Example:
Input: ["meeting"]
Output:
{"meeting":["call","sync","会议","Besprechung"]}`

// buildParsePrompt creates the system prompt for query interpretation.
func buildParsePrompt(req ai.ParseRequest) string {
	var statuses, priorities strings.Builder
	for _, c := range req.Categories {
		names := append([]string{c.Key}, c.Aliases...)
		switch c.Kind {
		case glossary.KindStatus:
			fmt.Fprintf(&statuses, "- %s: %s\n", c.Key, strings.Join(names[1:], ", "))
		case glossary.KindPriority:
			fmt.Fprintf(&priorities, "- %d: %s\n", c.Level, strings.Join(names, ", "))
		}
	}

	today := req.Today.Format(core.DateLayout)
	return fmt.Sprintf(parsePromptTemplate,
		parseResponseSchema,
		today, req.Today.Weekday(),
		strings.TrimRight(statuses.String(), "\n"),
		strings.TrimRight(priorities.String(), "\n"),
		max(req.ExpansionsPerLanguage, 1),
		languageList(req.Languages))
}

func buildExpandPrompt(req ai.ExpandRequest) string {
	return fmt.Sprintf(expandPromptTemplate, max(req.PerLanguage, 1), languageList(req.Languages))
}

func languageList(langs []string) string {
	if len(langs) == 0 {
		return "en"
	}
	return strings.Join(langs, ", ")
}

package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// PriorityValue is a draft priority: a level, or Any for "has a priority".
type PriorityValue struct {
	Level int
	Any   bool
}

// DueValue is a draft due filter: a symbolic value, or an operator with a
// YYYY-MM-DD date.
type DueValue struct {
	Symbol   string
	Operator string
	Date     string
}

// Draft is the shape-checked output of a LanguageAssistant. Values are
// not yet resolved against the glossary or bounds-checked.
type Draft struct {
	CoreKeywords []string
	Expansions   map[string][]string
	Priority     *PriorityValue
	Due          *DueValue
	Status       []string
	Tags         []string
	Folder       string
	IsVague      bool
	Confidence   *float64
}

// DecodeDraft decodes the JSON object a model returns. Any field of the
// wrong JSON type yields a malformed-response *Failure.
//
//	{
//	  "coreKeywords": ["report"],
//	  "expansions": {"report": ["summary", "报告"]},
//	  "priority": 1 | "any" | null,
//	  "due": "today" | {"operator": "before", "date": "2025-01-31"} | null,
//	  "status": ["open"] | "open" | null,
//	  "tags": ["work"],
//	  "folder": "projects",
//	  "isVague": false,
//	  "confidence": 0.9
//	}
func DecodeDraft(data []byte) (*Draft, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("response is not a JSON object: %v", err)
	}

	d := &Draft{}
	var err error
	if d.CoreKeywords, err = stringArray(raw, "coreKeywords"); err != nil {
		return nil, err
	}
	if d.Tags, err = stringArray(raw, "tags"); err != nil {
		return nil, err
	}
	if d.Expansions, err = expansions(raw["expansions"]); err != nil {
		return nil, err
	}
	if d.Priority, err = priority(raw["priority"]); err != nil {
		return nil, err
	}
	if d.Due, err = due(raw["due"]); err != nil {
		return nil, err
	}
	if d.Status, err = status(raw["status"]); err != nil {
		return nil, err
	}
	if v, ok := present(raw, "folder"); ok {
		if err := json.Unmarshal(v, &d.Folder); err != nil {
			return nil, malformed("folder must be a string")
		}
	}
	if v, ok := present(raw, "isVague"); ok {
		if err := json.Unmarshal(v, &d.IsVague); err != nil {
			return nil, malformed("isVague must be a boolean")
		}
	}
	if v, ok := present(raw, "confidence"); ok {
		var c float64
		if err := json.Unmarshal(v, &c); err != nil {
			return nil, malformed("confidence must be a number")
		}
		if math.IsNaN(c) || c < 0 || c > 1 {
			return nil, malformed("confidence %v not in [0,1]", c)
		}
		d.Confidence = &c
	}
	return d, nil
}

func malformed(format string, args ...any) *Failure {
	return &Failure{Category: FailureMalformedResponse, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedResponse}, args...)...)}
}

// present returns a field that exists and is not JSON null.
func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func stringArray(raw map[string]json.RawMessage, key string) ([]string, error) {
	v, ok := present(raw, key)
	if !ok {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, malformed("%s must be an array of strings", key)
	}
	return out, nil
}

func expansions(v json.RawMessage) (map[string][]string, error) {
	if len(v) == 0 || string(bytes.TrimSpace(v)) == "null" {
		return nil, nil
	}
	var out map[string][]string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, malformed("expansions must map keywords to arrays of strings")
	}
	return out, nil
}

func priority(v json.RawMessage) (*PriorityValue, error) {
	if len(v) == 0 || string(bytes.TrimSpace(v)) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if s == "any" {
			return &PriorityValue{Any: true}, nil
		}
		return nil, malformed("priority string must be \"any\", got %q", s)
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, malformed("priority must be null, an integer or \"any\"")
	}
	if f != math.Trunc(f) {
		return nil, malformed("priority %v is not an integer", f)
	}
	return &PriorityValue{Level: int(f)}, nil
}

func due(v json.RawMessage) (*DueValue, error) {
	if len(v) == 0 || string(bytes.TrimSpace(v)) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return &DueValue{Symbol: s}, nil
	}
	var r struct {
		Operator *string `json:"operator"`
		Date     *string `json:"date"`
	}
	if err := json.Unmarshal(v, &r); err != nil || r.Operator == nil || r.Date == nil {
		return nil, malformed("due must be null, a string or {operator, date}")
	}
	return &DueValue{Operator: *r.Operator, Date: *r.Date}, nil
}

func status(v json.RawMessage) ([]string, error) {
	if len(v) == 0 || string(bytes.TrimSpace(v)) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return []string{s}, nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, malformed("status must be null, a string or an array of strings")
	}
	return out, nil
}

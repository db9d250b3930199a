package commitmsg

import (
	"encoding/json"
	"fmt"
	"strings"

	"revise/cli/internal/llm"
)

// FirstArray returns the first bracket-balanced JSON array literal in text.
// Brackets inside JSON strings are not counted. Markdown fences and commentary
// around the array are skipped.
func FirstArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// rawCandidate uses pointers so a missing field can be told apart from an empty one.
type rawCandidate struct {
	Kind    *string `json:"type"`
	Message *string `json:"message"`
	Body    *string `json:"body"`
}

// ParseCandidates extracts the first array from text and decodes it strictly:
// every element must be an object with string type, message and body fields.
// Any failure, including an empty array, is a *llm.ParseError.
func ParseCandidates(text string) (*CandidateSet, error) {
	arr, ok := FirstArray(text)
	if !ok {
		return nil, &llm.ParseError{Reason: "no JSON array found"}
	}
	var raw []*rawCandidate
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil, &llm.ParseError{Reason: "decode candidates", Err: err}
	}
	if len(raw) == 0 {
		return nil, &llm.ParseError{Reason: "no candidates in response"}
	}
	set := &CandidateSet{byKey: make(map[string]Candidate, len(raw))}
	for i, r := range raw {
		if r == nil || r.Kind == nil || r.Message == nil || r.Body == nil {
			return nil, &llm.ParseError{Reason: fmt.Sprintf("candidate %d: missing type, message or body", i)}
		}
		set.Add(Candidate{Kind: *r.Kind, Message: *r.Message, Body: *r.Body})
	}
	return set, nil
}

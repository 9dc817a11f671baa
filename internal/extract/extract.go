// Package extract recovers JSON documents from free-form model output.
// Completions routinely wrap their JSON in markdown fences or surround
// it with prose; Decode strips all of that before unmarshalling.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFence    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	genericFence = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ParseError reports text that no recovery strategy could turn into
// valid JSON. Raw carries the original completion for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON object found in completion: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode extracts the JSON object embedded in text and unmarshals it
// into v. Fenced blocks win over bare braces: a ```json fence is tried
// first, then any fence, then the slice from the first '{' to the last
// '}'. Clean JSON input passes through unchanged.
func Decode(text string, v any) error {
	candidate := text
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := genericFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end < start {
		return &ParseError{Raw: text, Err: fmt.Errorf("no braces present")}
	}
	if err := json.Unmarshal([]byte(candidate[start:end+1]), v); err != nil {
		return &ParseError{Raw: text, Err: err}
	}
	return nil
}

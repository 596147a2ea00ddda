package traits

import (
	"encoding/json"
	"fmt"
	"sort"
)

const maxSnippet = 200

// Result is the validated, bounded form of a model response.
type Result struct {
	Levels     Levels            `json:"levels"`
	Rationales map[string]string `json:"rationales"`
	Summary    string            `json:"summary"`

	// DroppedKeys lists level keys outside the vocabulary, sorted.
	DroppedKeys []string `json:"-"`
}

// InvalidOutputError reports model content that is not JSON.
type InvalidOutputError struct {
	Snippet string
	Err     error
}

func (e *InvalidOutputError) Error() string {
	if e.Err == nil {
		return "model output is not valid JSON"
	}
	return fmt.Sprintf("model output is not valid JSON: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// Finalize validates raw model content and returns a total, clamped Result.
//
// raw may be JSON text (string, []byte, json.RawMessage) or already decoded
// data. Text that does not parse fails with *InvalidOutputError. A decoded
// value that is not an object is treated as an empty object.
func Finalize(raw any) (Result, error) {
	var data any
	switch t := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(t), &data); err != nil {
			return Result{}, &InvalidOutputError{Snippet: snippet(t), Err: err}
		}
	case []byte:
		if err := json.Unmarshal(t, &data); err != nil {
			return Result{}, &InvalidOutputError{Snippet: snippet(string(t)), Err: err}
		}
	case json.RawMessage:
		if err := json.Unmarshal(t, &data); err != nil {
			return Result{}, &InvalidOutputError{Snippet: snippet(string(t)), Err: err}
		}
	default:
		data = t
	}

	obj, _ := data.(map[string]any)
	rawLevels, _ := obj["levels"].(map[string]any)

	levels := make(Levels, len(keys))
	for _, k := range keys {
		levels[k] = ClampLevel(rawLevels[string(k)])
	}

	var dropped []string
	for k := range rawLevels {
		if !IsKey(k) {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)

	rationales := map[string]string{}
	if m, ok := obj["rationales"].(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				rationales[k] = s
			}
		}
	}

	summary, _ := obj["summary"].(string)

	return Result{
		Levels:      levels,
		Rationales:  rationales,
		Summary:     summary,
		DroppedKeys: dropped,
	}, nil
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet])
}

package recommend

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/traitdial/internal/platform/apierr"
)

// MinScenarioLength is counted in runes after trimming.
const MinScenarioLength = 3

var errScenarioTooShort = errors.New("scenario is required and must be at least 3 characters")

type ScenarioRequest struct {
	Scenario string `json:"scenario"`
	PDFURL   string `json:"pdfUrl,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// ParseRequest decodes and validates an inbound envelope. A body that is not a
// JSON object is read as {}, so it fails on the missing scenario.
func ParseRequest(body []byte) (ScenarioRequest, error) {
	fields := decodeObject(body)

	req := ScenarioRequest{
		Scenario: scalarString(fields["scenario"]),
		PDFURL:   strings.TrimSpace(scalarString(fields["pdfUrl"])),
		Debug:    truthy(fields["debug"]),
	}
	if err := req.Validate(); err != nil {
		return ScenarioRequest{}, err
	}
	return req, nil
}

// Validate applies the scenario rule to an already-built request.
func (r ScenarioRequest) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.Scenario)) < MinScenarioLength {
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidScenario, errScenarioTooShort)
	}
	return nil
}

func decodeObject(body []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return map[string]any{}
	}
	return fields
}

// scalarString renders strings, numbers and booleans as text. Objects, arrays
// and null read as absent.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeMethodNotAllowed     = "method_not_allowed"
	CodeMissingConfiguration = "missing_configuration"
	CodeInvalidScenario      = "invalid_scenario"
	CodeUpstreamUnavailable  = "upstream_unavailable"
	CodeUpstreamMalformed    = "upstream_malformed"
	CodeUpstreamRejected     = "upstream_rejected"
	CodeModelOutputInvalid   = "model_output_invalid"
	CodeInternal             = "internal"
)

// MaxSnippet bounds how much of an offending payload is echoed back to callers.
const MaxSnippet = 200

type Error struct {
	Status  int
	Code    string
	Err     error
	Snippet string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithSnippet attaches a bounded excerpt of the offending payload.
func (e *Error) WithSnippet(raw string) *Error {
	if e == nil {
		return nil
	}
	e.Snippet = Snippet(raw)
	return e
}

// Snippet truncates raw to MaxSnippet runes.
func Snippet(raw string) string {
	r := []rune(raw)
	if len(r) <= MaxSnippet {
		return raw
	}
	return string(r[:MaxSnippet])
}

// From maps any error onto an *Error. Unknown errors become a 500 carrying their message.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		if ae.Status == 0 {
			ae.Status = http.StatusInternalServerError
		}
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}

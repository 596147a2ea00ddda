package llm

import "fmt"

type Kind string

const (
	// KindConfiguration: no credential, nothing was sent.
	KindConfiguration Kind = "configuration"
	// KindUnavailable: the call itself failed (network, timeout).
	KindUnavailable Kind = "unavailable"
	// KindMalformed: the upstream body was not JSON.
	KindMalformed Kind = "malformed"
	// KindRejected: non-2xx with a JSON body.
	KindRejected Kind = "rejected"
)

type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Snippet    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "generation error"
	}
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("generation %s: status=%d: %s", e.Kind, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("generation %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

package docextract

// Status tells whether grounding text could be produced.
type Status string

const (
	StatusExtracted   Status = "extracted"
	StatusUnavailable Status = "unavailable"
)

// Result is the outcome of one extraction. Callers that only need text use
// Text(), which is "" whenever the document was unavailable.
type Result struct {
	Status Status
	Reason string
	text   string
}

func Extracted(text string) Result {
	return Result{Status: StatusExtracted, text: text}
}

func Unavailable(reason string) Result {
	return Result{Status: StatusUnavailable, Reason: reason}
}

func (r Result) Text() string {
	if r.Status != StatusExtracted {
		return ""
	}
	return r.text
}

func (r Result) Available() bool { return r.Status == StatusExtracted }

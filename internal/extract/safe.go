package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Error reports a failure while reading the page document.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Outcome is the structured result handed across the call boundary.
type Outcome struct {
	OK  bool
	JD  string
	Err error
}

// Safe runs the extractor against doc and converts any failure, including a panic raised while
// walking the document, into a failed Outcome.
func Safe(e *Extractor, doc *goquery.Document) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: &Error{Message: "failed to extract job description", Cause: fmt.Errorf("%v", r)}}
		}
	}()

	if doc == nil {
		return Outcome{Err: &Error{Message: "no document loaded"}}
	}
	if e == nil {
		e = Default()
	}

	return Outcome{OK: true, JD: e.Extract(doc)}
}

package extract

import (
	"context"
	"fmt"
	"time"
)

// TextExtractor turns a PDF byte stream into structured text.
// Implementations never perform network I/O; fetching is the caller's job.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (Document, error)
}

// Document is the result of one extraction call. It exists for the duration
// of a single pipeline invocation and is never persisted.
type Document struct {
	// PageTexts holds the text of each page in page order. Empty entries
	// are kept so indices line up with physical pages.
	PageTexts []string
	// Text is the page texts joined with a newline page separator.
	Text      string
	PageCount int
	// Method names the engine that produced the text.
	Method   string
	Duration time.Duration
	Warnings []string
}

// CharCount returns the length of the concatenated text in bytes.
func (d Document) CharCount() int { return len(d.Text) }

// FailReason distinguishes the three extraction failure classes.
type FailReason string

const (
	// ReasonInvalid covers input that is not a readable PDF at all.
	ReasonInvalid FailReason = "invalid"
	// ReasonEmpty covers PDFs that parsed but yielded too little text.
	ReasonEmpty FailReason = "empty"
	// ReasonEncrypted covers password-protected or unsupported encodings.
	ReasonEncrypted FailReason = "encrypted"
)

// Error is returned when every extraction engine has been exhausted.
type Error struct {
	Reason FailReason
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		switch e.Reason {
		case ReasonInvalid:
			msg = "input is not a readable PDF"
		case ReasonEmpty:
			msg = "document contains no extractable text"
		case ReasonEncrypted:
			msg = "document is encrypted or uses an unsupported format"
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("extract: %s", msg)
}

func (e *Error) Unwrap() error { return e.Err }

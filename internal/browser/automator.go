// Package browser provides the browser-automation facility used by the
// automated apply strategies: open a page, detect form fields, fill them,
// and submit. The facility is an opaque capability; strategies depend only
// on the Automator and Session interfaces so tests can substitute fakes.
package browser

import "context"

// FieldKind classifies a detected form field.
type FieldKind string

// Field kinds.
const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldCheckbox FieldKind = "checkbox"
	FieldFile     FieldKind = "file"
)

// FieldDescriptor describes one detected form field.
type FieldDescriptor struct {
	Selector string    `json:"selector"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

// SubmitResult is the outcome of a form submission.
type SubmitResult struct {
	OK                bool
	ChallengeDetected bool
}

// Session is one open page in a driven browser. Sessions are not safe for
// concurrent use; the apply worker pool runs one session per worker.
type Session interface {
	DetectFields(ctx context.Context) ([]FieldDescriptor, error)
	Fill(ctx context.Context, field FieldDescriptor, value string) error
	Submit(ctx context.Context) (SubmitResult, error)
	Close()
}

// Automator opens browser sessions against external pages.
type Automator interface {
	Open(ctx context.Context, url string) (Session, error)
}

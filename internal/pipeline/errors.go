package pipeline

import "fmt"

// FailureKind labels the stage a file failed in.
type FailureKind string

const (
	FailRead          FailureKind = "io_read"
	FailInvalidFormat FailureKind = "invalid_format"
	FailRender        FailureKind = "page_render"
	FailEncode        FailureKind = "page_encode"
	FailCopy          FailureKind = "page_copy"
	FailAssembly      FailureKind = "assembly"
	FailCancelled     FailureKind = "cancelled"
)

// Error ties a failure kind to the page it occurred on (1-based, 0 when not
// page-scoped) and the underlying cause.
type Error struct {
	Kind FailureKind
	Page int
	Err  error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s (page %d): %v", e.Kind, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func failure(kind FailureKind, page int, err error) *Error {
	return &Error{Kind: kind, Page: page, Err: err}
}

package models

import "fmt"

// Kind classifies a per-URL failure or skip. Every error crossing a module
// boundary carries exactly one Kind.
type Kind int

const (
	KindTimeout Kind = iota
	KindConnection
	KindHTTP
	KindNotAnImage
	KindTooLarge
	KindDuplicate
	KindFilesystem
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection_error"
	case KindHTTP:
		return "http_error"
	case KindNotAnImage:
		return "not_an_image"
	case KindTooLarge:
		return "too_large"
	case KindDuplicate:
		return "duplicate_content"
	case KindFilesystem:
		return "filesystem_error"
	default:
		return "unexpected"
	}
}

// Error is the pipeline's error type. HTTPStatus is only set for KindHTTP.
type Error struct {
	Kind       Kind
	HTTPStatus int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an Error with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around a cause.
func WrapError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewHTTPError builds a KindHTTP error carrying the response status code.
// 404 and 403 get their own messages; everything else is generic.
func NewHTTPError(status int) *Error {
	var msg string
	switch status {
	case 404:
		msg = "image not found (404)"
	case 403:
		msg = "access forbidden (403) - server declined our request"
	default:
		msg = fmt.Sprintf("http error: %d", status)
	}
	return &Error{Kind: KindHTTP, HTTPStatus: status, Message: msg}
}

// Payload is one fetched HTTP response, alive only for the duration of a
// single pipeline pass.
type Payload struct {
	URL            string
	ContentType    string
	DeclaredLength int64 // -1 when the server omitted Content-Length
	Data           []byte
}

// Status is the terminal state of one URL.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

// Outcome is the per-URL result record consumed by the CLI layer.
type Outcome struct {
	URL    string
	Status Status
	Path   string // set on success: where the file landed
	Err    *Error // set on skip/failure
}

// Summary is the batch tally. Duplicates are counted apart from failures.
type Summary struct {
	Succeeded  int
	Failed     int
	Duplicates int
	TotalFiles int // regular files in the destination directory after the run
}

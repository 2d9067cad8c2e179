package processor

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input"
	KindReadFailed   ErrorKind = "read_failed"
	KindDecodeFailed ErrorKind = "decode_failed"
	KindEncodeFailed ErrorKind = "encode_failed"
)

var (
	ErrNoFile     = errors.New("no file selected")
	ErrNotAnImage = errors.New("file must be an image")
	ErrTooLarge   = errors.New("image size must be less than 10MB")
	ErrEmptyImage = errors.New("image has no pixels")
)

// Error is returned by every processor operation that fails.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first processor error in err's chain,
// or an empty kind when there is none.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

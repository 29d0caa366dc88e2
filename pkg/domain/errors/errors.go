package errors

import "errors"

var (
	// requested item does not exist.
	ErrMissing = errors.New("missing")

	// requested item exists more than expected.
	ErrTooMuch = errors.New("too much")

	// item to be created already exists.
	ErrAlreadyExists = errors.New("already exists")
)

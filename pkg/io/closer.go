package io

import (
	"io"
)

type readerWithHook struct {
	base   io.Reader
	hook   func()
	closed bool
}

// WithCloseHook wraps r into io.ReadCloser which calls hook
// at the first `Close`.
//
// If r is io.ReadCloser, its `Close` is also propagated.
//
// When hook is nil and r is already io.ReadCloser, r is returned as is.
func WithCloseHook(r io.Reader, hook func()) io.ReadCloser {
	if hook == nil {
		if rc, ok := r.(io.ReadCloser); ok {
			return rc
		}
	}
	return &readerWithHook{base: r, hook: hook}
}

func (r *readerWithHook) Read(p []byte) (int, error) {
	return r.base.Read(p)
}

func (r *readerWithHook) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.hook != nil {
		r.hook()
	}

	if c, ok := r.base.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

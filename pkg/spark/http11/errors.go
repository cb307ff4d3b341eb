package http11

import "errors"

// Parser errors - pre-allocated, wrapped with context via fmt.Errorf("%w: ...")
var (
	// ErrMalformedRequest indicates the raw bytes cannot be split into a request line,
	// a header block and a body, or the request line is not METHOD SP PATH SP VERSION.
	ErrMalformedRequest = errors.New("http11: malformed request")

	// ErrEmptyRequest indicates the peer closed the connection without sending anything.
	ErrEmptyRequest = errors.New("http11: empty request")

	// ErrRequestTooLarge indicates the request does not fit in the read buffer.
	ErrRequestTooLarge = errors.New("http11: request exceeds read buffer")
)

// Response errors
var (
	// ErrUnsupportedEncoding indicates Compress was asked for a coding it cannot produce
	ErrUnsupportedEncoding = errors.New("http11: unsupported content encoding")
)

package http11

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// readBufPool provides pooled read buffers of DefaultReadBufferSize bytes.
// Other sizes are allocated per call.
var readBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultReadBufferSize)
		return &buf
	},
}

// Parse turns raw request bytes into a Request.
//
// Format: METHOD SP PATH SP VERSION CRLF *(NAME ": " VALUE CRLF) CRLF BODY
//
// The bytes are split on the first blank line. The request line must have
// exactly three space-separated tokens and a path starting with '/'.
// Header lines are split once on ": "; lines without that separator are
// skipped. Names are lower-cased and a repeated name overwrites the earlier
// value.
//
// The returned Request does not reference raw.
func Parse(raw []byte) (*Request, error) {
	end := bytes.Index(raw, headerEndBytes)
	if end == -1 {
		return nil, fmt.Errorf("%w: no blank line after headers", ErrMalformedRequest)
	}

	head := string(raw[:end])
	lines := strings.Split(head, "\r\n")

	req := &Request{}
	if err := parseRequestLine(req, lines[0]); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		req.Header.Set(name, value)
	}

	if rest := raw[end+len(headerEndBytes):]; len(rest) > 0 {
		req.Body = append([]byte(nil), rest...)
	}

	return req, nil
}

// parseRequestLine parses "METHOD PATH VERSION" into req.
func parseRequestLine(req *Request, line string) error {
	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return fmt.Errorf("%w: request line has %d tokens, want 3", ErrMalformedRequest, len(tokens))
	}

	path := tokens[1]
	if len(path) == 0 || path[0] != '/' {
		return fmt.Errorf("%w: path %q does not start with '/'", ErrMalformedRequest, path)
	}

	req.MethodToken = tokens[0]
	req.Method = ParseMethod(tokens[0])
	req.Path = path
	req.Proto = tokens[2]
	return nil
}

// ReadRequest reads one request from r and parses it.
//
// A single Read of at most limit bytes is expected to carry the request line,
// all headers and usually the body. If the headers declare a Content-Length
// larger than the body that arrived with them, the remaining bytes are read
// as well, as long as the whole request stays within limit.
//
// Returns ErrEmptyRequest when the peer sent nothing, ErrMalformedRequest when
// the bytes are not a request, and ErrRequestTooLarge when the headers fill the
// buffer without a blank line or the declared body does not fit.
func ReadRequest(r io.Reader, limit int) (*Request, error) {
	if limit <= 0 {
		limit = DefaultReadBufferSize
	}
	if limit > MaxReadBufferSize {
		limit = MaxReadBufferSize
	}

	var buf []byte
	if limit == DefaultReadBufferSize {
		bufPtr := readBufPool.Get().(*[]byte)
		defer readBufPool.Put(bufPtr)
		buf = *bufPtr
	} else {
		buf = make([]byte, limit)
	}

	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || err == io.EOF {
			return nil, ErrEmptyRequest
		}
		return nil, err
	}

	if n == len(buf) && !bytes.Contains(buf[:n], headerEndBytes) {
		return nil, fmt.Errorf("%w: headers do not fit in %d bytes", ErrRequestTooLarge, limit)
	}

	req, err := Parse(buf[:n])
	if err != nil {
		return nil, err
	}

	declared, ok := req.ContentLength()
	if !ok || declared <= int64(len(req.Body)) {
		return req, nil
	}

	missing := declared - int64(len(req.Body))
	if declared > int64(limit) || missing > int64(limit-n) {
		return nil, fmt.Errorf("%w: Content-Length %d", ErrRequestTooLarge, declared)
	}

	rest := make([]byte, missing)
	got, err := io.ReadFull(r, rest)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	req.Body = append(req.Body, rest[:got]...)

	return req, nil
}

package http11

import "math"

// Request is one parsed HTTP/1.1 request.
//
// A Request is built per connection and discarded when the connection closes.
// Path always begins with '/'.
type Request struct {
	// Method as enum for switching; MethodToken keeps the raw token for logs
	Method      Method
	MethodToken string

	// Request-target exactly as sent, query string included
	Path string

	// Version token from the request line (e.g. "HTTP/1.1"), not validated
	Proto string

	// Headers, lower-cased names, last value wins
	Header Header

	// Body holds every byte after the blank line, extended up to Content-Length
	// when the first read stopped short of it
	Body []byte

	// RemoteAddr is the network address of the client
	RemoteAddr string
}

// IsGET returns true if the request method is GET.
func (r *Request) IsGET() bool {
	return r.Method == MethodGET
}

// IsPOST returns true if the request method is POST.
func (r *Request) IsPOST() bool {
	return r.Method == MethodPOST
}

// UserAgent returns the User-Agent header, or "" when absent.
func (r *Request) UserAgent() string {
	return r.Header.Get(headerUserAgent)
}

// AcceptEncoding returns the raw Accept-Encoding header value.
func (r *Request) AcceptEncoding() string {
	return r.Header.Get(headerAcceptEncoding)
}

// ContentType returns the Content-Type header, or "" when absent.
func (r *Request) ContentType() string {
	return r.Header.Get(headerContentType)
}

// ContentLength returns the declared Content-Length.
// ok is false when the header is absent or not a decimal number.
func (r *Request) ContentLength() (n int64, ok bool) {
	v, present := r.Header.Lookup(headerContentLength)
	if !present {
		return 0, false
	}
	n, err := parseContentLength(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseContentLength parses a Content-Length header value.
// Returns -1 on error.
func parseContentLength(s string) (int64, error) {
	if len(s) == 0 {
		return -1, ErrMalformedRequest
	}

	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return -1, ErrMalformedRequest
		}
		d := int64(c - '0')

		// Reject values that do not fit in int64
		if n > (math.MaxInt64-d)/10 {
			return -1, ErrMalformedRequest
		}
		n = n*10 + d
	}
	return n, nil
}

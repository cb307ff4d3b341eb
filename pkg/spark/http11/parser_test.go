package http11

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestParseSimpleGET(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\r\n\r\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if req.Method != MethodGET {
		t.Errorf("Method = %v, want %v", req.Method, MethodGET)
	}
	if req.Path != "/" {
		t.Errorf("Path = %q, want %q", req.Path, "/")
	}
	if req.Proto != "HTTP/1.1" {
		t.Errorf("Proto = %q, want %q", req.Proto, "HTTP/1.1")
	}
	if req.Header.Len() != 0 {
		t.Errorf("Header.Len() = %d, want 0", req.Header.Len())
	}
	if len(req.Body) != 0 {
		t.Errorf("Body = %q, want empty", req.Body)
	}
}

func TestParseMethods(t *testing.T) {
	tests := []struct {
		token string
		want  Method
	}{
		{"GET", MethodGET},
		{"get", MethodGET},
		{"POST", MethodPOST},
		{"Post", MethodPOST},
		{"PUT", MethodOther},
		{"DELETE", MethodOther},
		{"BREW", MethodOther},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			req, err := Parse([]byte(tt.token + " / HTTP/1.1\r\n\r\n"))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if req.Method != tt.want {
				t.Errorf("Method = %v, want %v", req.Method, tt.want)
			}
			if req.MethodToken != tt.token {
				t.Errorf("MethodToken = %q, want %q", req.MethodToken, tt.token)
			}
		})
	}
}

func TestParseHeadersLowercased(t *testing.T) {
	input := "GET /user-agent HTTP/1.1\r\n" +
		"Host: localhost:4221\r\n" +
		"User-Agent: test-agent/1.0\r\n" +
		"ACCEPT-ENCODING: gzip\r\n" +
		"\r\n"

	req, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if req.Header.Len() != 3 {
		t.Errorf("Header.Len() = %d, want 3", req.Header.Len())
	}
	if got := req.UserAgent(); got != "test-agent/1.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "test-agent/1.0")
	}
	if got := req.AcceptEncoding(); got != "gzip" {
		t.Errorf("AcceptEncoding() = %q, want %q", got, "gzip")
	}
	if got := req.Header.Get("HOST"); got != "localhost:4221" {
		t.Errorf("Header.Get(HOST) = %q, want %q", got, "localhost:4221")
	}

	var names []string
	req.Header.VisitAll(func(name, value string) bool {
		names = append(names, name)
		return true
	})
	want := []string{"accept-encoding", "host", "user-agent"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("header names = %v, want %v", names, want)
	}
}

func TestParseDuplicateHeaderLastWins(t *testing.T) {
	input := "GET / HTTP/1.1\r\n" +
		"X-Trace: first\r\n" +
		"x-trace: second\r\n" +
		"X-TRACE: third\r\n" +
		"\r\n"

	req, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := req.Header.Get("x-trace"); got != "third" {
		t.Errorf("x-trace = %q, want %q", got, "third")
	}
	if req.Header.Len() != 1 {
		t.Errorf("Header.Len() = %d, want 1", req.Header.Len())
	}
}

func TestParseIgnoresLinesWithoutSeparator(t *testing.T) {
	input := "GET / HTTP/1.1\r\n" +
		"NoSeparatorHere\r\n" +
		"Tight:value\r\n" +
		"Host: example.com\r\n" +
		"\r\n"

	req, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if req.Header.Len() != 1 {
		t.Errorf("Header.Len() = %d, want 1", req.Header.Len())
	}
	if req.Header.Has("tight") {
		t.Error("header without \": \" separator was stored")
	}
}

func TestParseValueKeepsSecondSeparator(t *testing.T) {
	req, err := Parse([]byte("GET / HTTP/1.1\r\nX-Note: a: b\r\n\r\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := req.Header.Get("x-note"); got != "a: b" {
		t.Errorf("x-note = %q, want %q", got, "a: b")
	}
}

func TestParseBody(t *testing.T) {
	input := "POST /files/foo.txt HTTP/1.1\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"

	req, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !req.IsPOST() {
		t.Errorf("Method = %v, want POST", req.Method)
	}
	if string(req.Body) != "hello" {
		t.Errorf("Body = %q, want %q", req.Body, "hello")
	}
	if n, ok := req.ContentLength(); !ok || n != 5 {
		t.Errorf("ContentLength() = %d, %v; want 5, true", n, ok)
	}
	if got := req.ContentType(); got != ContentTypeOctetStream {
		t.Errorf("ContentType() = %q, want %q", got, ContentTypeOctetStream)
	}
}

func TestParseBodyKeepsBlankLines(t *testing.T) {
	req, err := Parse([]byte("POST / HTTP/1.1\r\n\r\nline1\r\n\r\nline2"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if string(req.Body) != "line1\r\n\r\nline2" {
		t.Errorf("Body = %q, want %q", req.Body, "line1\r\n\r\nline2")
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no blank line", "GET / HTTP/1.1\r\nHost: x\r\n"},
		{"empty", ""},
		{"two tokens", "GET /\r\n\r\n"},
		{"four tokens", "GET / HTTP/1.1 extra\r\n\r\n"},
		{"double space", "GET  / HTTP/1.1\r\n\r\n"},
		{"empty request line", "\r\n\r\n"},
		{"relative path", "GET index.html HTTP/1.1\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, ErrMalformedRequest) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedRequest", tt.input, err)
			}
		})
	}
}

func TestParseDoesNotAliasInput(t *testing.T) {
	raw := []byte("POST / HTTP/1.1\r\nX-A: b\r\n\r\nbody")
	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for i := range raw {
		raw[i] = 'z'
	}
	if string(req.Body) != "body" {
		t.Errorf("Body = %q after input reuse, want %q", req.Body, "body")
	}
	if req.Header.Get("x-a") != "b" {
		t.Errorf("x-a = %q after input reuse, want %q", req.Header.Get("x-a"), "b")
	}
}

func TestContentLengthInvalid(t *testing.T) {
	for _, v := range []string{"", "abc", "-1", "5 ", "9223372036854775808", "20000000000000000000"} {
		var req Request
		req.Header.Set("Content-Length", v)
		if n, ok := req.ContentLength(); ok {
			t.Errorf("ContentLength() for %q = %d, true; want false", v, n)
		}
	}
}

// chunkedReader returns one chunk per Read call.
type chunkedReader struct {
	chunks []string
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestReadRequestSingleRead(t *testing.T) {
	r := strings.NewReader("GET /echo/abc HTTP/1.1\r\nHost: x\r\n\r\n")
	req, err := ReadRequest(r, 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Path != "/echo/abc" {
		t.Errorf("Path = %q, want %q", req.Path, "/echo/abc")
	}
}

func TestReadRequestEmpty(t *testing.T) {
	_, err := ReadRequest(strings.NewReader(""), 0)
	if !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("error = %v, want ErrEmptyRequest", err)
	}
}

func TestReadRequestHeadersSplitAcrossReads(t *testing.T) {
	r := &chunkedReader{chunks: []string{"GET / HTTP/1.1\r\n", "Host: x\r\n\r\n"}}
	_, err := ReadRequest(r, 0)
	if !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("error = %v, want ErrMalformedRequest", err)
	}
}

func TestReadRequestCompletesDeclaredBody(t *testing.T) {
	r := &chunkedReader{chunks: []string{
		"POST /files/a HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello",
		" world",
	}}
	req, err := ReadRequest(r, 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if string(req.Body) != "hello world" {
		t.Errorf("Body = %q, want %q", req.Body, "hello world")
	}
}

func TestReadRequestShortBodyAtEOF(t *testing.T) {
	r := strings.NewReader("POST /files/a HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc")
	req, err := ReadRequest(r, 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if string(req.Body) != "abc" {
		t.Errorf("Body = %q, want %q", req.Body, "abc")
	}
}

func TestReadRequestTooLarge(t *testing.T) {
	r := strings.NewReader("POST /files/a HTTP/1.1\r\nContent-Length: 100000\r\n\r\nabc")
	_, err := ReadRequest(r, 256)
	if !errors.Is(err, ErrRequestTooLarge) {
		t.Errorf("error = %v, want ErrRequestTooLarge", err)
	}
}

func TestContentLengthMaxInt64(t *testing.T) {
	var req Request
	req.Header.Set("Content-Length", "9223372036854775807")
	n, ok := req.ContentLength()
	if !ok || n != math.MaxInt64 {
		t.Errorf("ContentLength() = %d, %v; want %d, true", n, ok, int64(math.MaxInt64))
	}
}

func TestReadRequestHugeContentLength(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"max int64", "9223372036854775807"},
		{"max int64 minus body", "9223372036854775804"},
		{"just over limit", "4097"},
		{"wraps int64", "20000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "POST /files/a HTTP/1.1\r\n" +
				"Content-Type: application/octet-stream\r\n" +
				"Content-Length: " + tt.value + "\r\n" +
				"\r\n" +
				"abc"

			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ReadRequest panicked: %v", r)
				}
			}()

			req, err := ReadRequest(strings.NewReader(raw), 0)
			switch {
			case errors.Is(err, ErrRequestTooLarge):
			case tt.name == "wraps int64" && err == nil:
				// Unparseable Content-Length: the body is taken as read
				if string(req.Body) != "abc" {
					t.Errorf("Body = %q, want %q", req.Body, "abc")
				}
			default:
				t.Errorf("error = %v, want ErrRequestTooLarge", err)
			}
		})
	}
}

func TestReadRequestHeadersFillBuffer(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", 300)
	_, err := ReadRequest(strings.NewReader(raw), 128)
	if !errors.Is(err, ErrRequestTooLarge) {
		t.Errorf("error = %v, want ErrRequestTooLarge", err)
	}
}

func BenchmarkParse(b *testing.B) {
	raw := []byte("GET /echo/hello HTTP/1.1\r\n" +
		"Host: localhost:4221\r\n" +
		"User-Agent: bench/1.0\r\n" +
		"Accept-Encoding: gzip, deflate\r\n" +
		"\r\n")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(raw); err != nil {
			b.Fatal(err)
		}
	}
}

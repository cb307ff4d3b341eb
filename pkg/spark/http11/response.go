package http11

import (
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/bytebufferpool"
)

// DefaultCompressionLevel is the gzip level used by NewResponse.
const DefaultCompressionLevel = gzip.DefaultCompression

// headerField is one response header line; order is preserved on the wire.
type headerField struct {
	name  string
	value string
}

// Response is a fully built HTTP/1.1 response.
//
// Responses created by NewResponse always carry Content-Type and a
// Content-Length equal to len(Body) as transmitted, after any compression.
// Responses created by Status carry no headers and no body.
type Response struct {
	StatusCode int
	Body       []byte

	headers []headerField
}

// Status returns a bare response: status line followed by the blank line.
// Used for 200 on "/", 201, 404 and 500.
func Status(code int) *Response {
	return &Response{StatusCode: code}
}

// NewResponse builds a 200 response for body, compressed with enc at
// DefaultCompressionLevel.
func NewResponse(body []byte, contentType string, enc Encoding) (*Response, error) {
	return NewCompressedResponse(body, contentType, enc, DefaultCompressionLevel)
}

// NewCompressedResponse builds a 200 response for body.
//
// Header order is Content-Encoding (only when enc is not identity),
// Content-Type, Content-Length. Content-Length is taken from the compressed
// body, never from the input.
func NewCompressedResponse(body []byte, contentType string, enc Encoding, level int) (*Response, error) {
	resp := &Response{StatusCode: 200}

	if enc != EncodingIdentity {
		compressed, err := Compress(enc, body, level)
		if err != nil {
			return nil, err
		}
		body = compressed
		resp.headers = append(resp.headers, headerField{HeaderContentEncoding, string(enc)})
	}

	resp.headers = append(resp.headers,
		headerField{HeaderContentType, contentType},
		headerField{HeaderContentLength, strconv.Itoa(len(body))},
	)
	resp.Body = body
	return resp, nil
}

// Header returns the first value of the named response header ("" if absent).
// Names compare case-insensitively.
func (r *Response) Header(name string) string {
	for _, f := range r.headers {
		if equalFoldASCII(f.name, name) {
			return f.value
		}
	}
	return ""
}

// HasHeader reports whether the named response header is present.
func (r *Response) HasHeader(name string) bool {
	for _, f := range r.headers {
		if equalFoldASCII(f.name, name) {
			return true
		}
	}
	return false
}

// VisitHeaders calls visitor for each header in wire order.
// Iteration stops if visitor returns false.
func (r *Response) VisitHeaders(visitor func(name, value string) bool) {
	for _, f := range r.headers {
		if !visitor(f.name, f.value) {
			return
		}
	}
}

// WriteTo writes the status line, headers, blank line and body to w in one
// Write call.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	r.appendTo(buf)
	n, err := w.Write(buf.B)
	return int64(n), err
}

// Bytes returns the exact wire form of the response.
func (r *Response) Bytes() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	r.appendTo(buf)
	return append([]byte(nil), buf.B...)
}

func (r *Response) appendTo(buf *bytebufferpool.ByteBuffer) {
	buf.Write(getStatusLine(r.StatusCode))
	for _, f := range r.headers {
		buf.WriteString(f.name)
		buf.Write(colonSpaceBytes)
		buf.WriteString(f.value)
		buf.Write(crlfBytes)
	}
	buf.Write(crlfBytes)
	buf.Write(r.Body)
}

// getStatusLine returns the pre-compiled status line for the codes this
// server emits. Other codes are built on demand (1 allocation).
func getStatusLine(code int) []byte {
	switch code {
	case 200:
		return status200Bytes
	case 201:
		return status201Bytes
	case 400:
		return status400Bytes
	case 404:
		return status404Bytes
	case 405:
		return status405Bytes
	case 413:
		return status413Bytes
	case 500:
		return status500Bytes
	default:
		return []byte(Proto + " " + strconv.Itoa(code) + " " + StatusText(code) + "\r\n")
	}
}

// StatusText returns the reason phrase for an HTTP status code.
// Based on RFC 7231 Section 6.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 413:
		return "Payload Too Large"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// Package http11 implements the request parsing, content negotiation and response
// framing of a one-request-per-connection HTTP/1.1 server.
package http11

// HTTP status lines - pre-compiled with CRLF
var (
	status200Bytes = []byte("HTTP/1.1 200 OK\r\n")
	status201Bytes = []byte("HTTP/1.1 201 Created\r\n")
	status400Bytes = []byte("HTTP/1.1 400 Bad Request\r\n")
	status404Bytes = []byte("HTTP/1.1 404 Not Found\r\n")
	status405Bytes = []byte("HTTP/1.1 405 Method Not Allowed\r\n")
	status413Bytes = []byte("HTTP/1.1 413 Payload Too Large\r\n")
	status500Bytes = []byte("HTTP/1.1 500 Internal Server Error\r\n")
)

// Header names as they appear on the wire in responses.
const (
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
)

// Request header names, already lower-cased for Header lookups.
const (
	headerAcceptEncoding = "accept-encoding"
	headerContentLength  = "content-length"
	headerContentType    = "content-type"
	headerUserAgent      = "user-agent"
)

// Content types used by the built-in routes.
const (
	ContentTypePlain       = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
)

// Protocol constants
var (
	crlfBytes       = []byte("\r\n")
	colonSpaceBytes = []byte(": ")
	headerEndBytes  = []byte("\r\n\r\n")
)

const (
	// Proto is the only version this server speaks in responses.
	Proto = "HTTP/1.1"

	// DefaultReadBufferSize bounds the single read that captures one request.
	DefaultReadBufferSize = 4096

	// MaxReadBufferSize caps the configurable read buffer.
	MaxReadBufferSize = 1 << 20
)

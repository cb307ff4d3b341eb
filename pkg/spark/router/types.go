package router

import (
	"strings"

	"github.com/yourusername/spark/pkg/spark/http11"
	"github.com/yourusername/spark/pkg/spark/storage"
)

// Handler produces the response for one request.
//
// A Handler always returns a usable response when err is nil. When err is
// non-nil the response may be nil; Dispatch maps the error to a status.
type Handler func(req *http11.Request) (*http11.Response, error)

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Matcher decides whether a rule applies to a request.
type Matcher func(req *http11.Request) bool

// Rule pairs a predicate with the handler that serves it.
type Rule struct {
	Name   string
	Match  Matcher
	Handle Handler
}

// Config is built once at startup and never mutated afterwards.
type Config struct {
	// Storage backs the /files routes. nil leaves them unregistered, so any
	// /files request falls through to 404.
	Storage storage.Store

	// Encodings offered for negotiated (text) routes, in preference order.
	// nil selects http11.SupportedEncodings; an empty non-nil slice disables
	// compression.
	Encodings []http11.Encoding

	// CompressionLevel is the gzip level for negotiated routes.
	// 0 selects http11.DefaultCompressionLevel.
	CompressionLevel int
}

// DefaultConfig returns a configuration without storage.
func DefaultConfig() Config {
	return Config{
		Encodings:        http11.SupportedEncodings,
		CompressionLevel: http11.DefaultCompressionLevel,
	}
}

// Exact matches method and an identical path.
func Exact(method http11.Method, path string) Matcher {
	return func(req *http11.Request) bool {
		return req.Method == method && req.Path == path
	}
}

// Prefix matches method and any path starting with prefix.
// Extra trailing segments still match.
func Prefix(method http11.Method, prefix string) Matcher {
	return func(req *http11.Request) bool {
		return req.Method == method && strings.HasPrefix(req.Path, prefix)
	}
}

// Package router selects a handler for a parsed request from an ordered list
// of rules and turns handler errors into status responses.
package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/spark/pkg/spark/http11"
	"github.com/yourusername/spark/pkg/spark/storage"
)

// Built-in rule names, in evaluation order.
const (
	RuleRoot      = "root"
	RuleEcho      = "echo"
	RuleUserAgent = "user-agent"
	RuleFilesGet  = "files-get"
	RuleFilesPost = "files-post"
)

const (
	echoSegment  = "/echo/"
	filesSegment = "/files/"
)

// Router evaluates rules in registration order; the first match wins and
// unmatched requests get 404.
//
// A Router holds no per-request state and is safe for concurrent use once
// construction is finished.
type Router struct {
	rules []Rule
	cfg   Config
}

// New builds the router with the built-in rules:
//
//	GET  /               root
//	GET  /echo*          echo
//	GET  /user-agent*    user-agent
//	GET  /files/*        files-get   (only with Storage)
//	POST /files/*        files-post  (only with Storage)
func New(cfg Config) *Router {
	if cfg.Encodings == nil {
		cfg.Encodings = http11.SupportedEncodings
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = http11.DefaultCompressionLevel
	}

	r := &Router{cfg: cfg}
	r.Add(RuleRoot, Exact(http11.MethodGET, "/"), r.handleRoot)
	r.Add(RuleEcho, Prefix(http11.MethodGET, "/echo"), r.handleEcho)
	r.Add(RuleUserAgent, Prefix(http11.MethodGET, "/user-agent"), r.handleUserAgent)

	if cfg.Storage != nil {
		r.Add(RuleFilesGet, Prefix(http11.MethodGET, filesSegment), r.handleFileGet)
		r.Add(RuleFilesPost, Prefix(http11.MethodPOST, filesSegment), r.handleFilePost)
	}
	return r
}

// Add appends a rule. Rules added later have lower priority.
// Not safe to call concurrently with Dispatch.
func (r *Router) Add(name string, match Matcher, handler Handler) {
	r.rules = append(r.rules, Rule{Name: name, Match: match, Handle: handler})
}

// Rules returns the rule names in evaluation order.
func (r *Router) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Match returns the first rule that applies to req.
func (r *Router) Match(req *http11.Request) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Match(req) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Dispatch routes req and always returns a response to send.
//
// The returned error explains a non-2xx response and is meant for logging:
// ErrRouteNotFound and missing files become 404, anything else 500.
func (r *Router) Dispatch(req *http11.Request) (*http11.Response, error) {
	rule, ok := r.Match(req)
	if !ok {
		return http11.Status(404), fmt.Errorf("%w: %s %s", ErrRouteNotFound, req.MethodToken, req.Path)
	}

	resp, err := rule.Handle(req)
	if err != nil {
		return StatusForError(err), err
	}
	if resp == nil {
		return http11.Status(500), fmt.Errorf("router: rule %q returned no response", rule.Name)
	}
	return resp, nil
}

// Handler exposes Dispatch as a Handler so it can be wrapped by middleware.
func (r *Router) Handler() Handler {
	return r.Dispatch
}

// StatusForError maps a handler error to the bare response sent for it.
func StatusForError(err error) *http11.Response {
	switch {
	case errors.Is(err, ErrRouteNotFound), storage.IsNotExist(err):
		return http11.Status(404)
	default:
		return http11.Status(500)
	}
}

func (r *Router) handleRoot(req *http11.Request) (*http11.Response, error) {
	return http11.Status(200), nil
}

// handleEcho returns whatever follows the first "/echo/" in the path.
func (r *Router) handleEcho(req *http11.Request) (*http11.Response, error) {
	idx := strings.Index(req.Path, echoSegment)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %q has no %q segment", ErrRouteNotFound, req.Path, echoSegment)
	}
	return r.text(req, req.Path[idx+len(echoSegment):])
}

func (r *Router) handleUserAgent(req *http11.Request) (*http11.Response, error) {
	return r.text(req, req.UserAgent())
}

// text builds a text/plain response using the encoding negotiated from the
// request's Accept-Encoding header.
func (r *Router) text(req *http11.Request, body string) (*http11.Response, error) {
	enc := http11.Negotiate(req.AcceptEncoding(), r.cfg.Encodings)
	return http11.NewCompressedResponse([]byte(body), http11.ContentTypePlain, enc, r.cfg.CompressionLevel)
}

// handleFileGet streams the stored file as-is. File bodies are never compressed.
func (r *Router) handleFileGet(req *http11.Request) (*http11.Response, error) {
	name := strings.TrimPrefix(req.Path, filesSegment)
	if !r.cfg.Storage.Exists(name) {
		return nil, fmt.Errorf("%w: file %q", ErrRouteNotFound, name)
	}

	data, err := r.cfg.Storage.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return http11.NewResponse(data, http11.ContentTypeOctetStream, http11.EncodingIdentity)
}

// handleFilePost stores the request body. The request must declare
// Content-Type: application/octet-stream and carry a Content-Length header.
func (r *Router) handleFilePost(req *http11.Request) (*http11.Response, error) {
	if ct := req.ContentType(); ct != http11.ContentTypeOctetStream {
		return nil, fmt.Errorf("%w: content-type %q", ErrRouteNotFound, ct)
	}
	if req.Header.Get(http11.HeaderContentLength) == "" {
		return nil, fmt.Errorf("%w: missing content-length", ErrRouteNotFound)
	}

	name := strings.TrimPrefix(req.Path, filesSegment)
	if err := r.cfg.Storage.WriteFile(name, req.Body); err != nil {
		return nil, err
	}
	return http11.Status(201), nil
}

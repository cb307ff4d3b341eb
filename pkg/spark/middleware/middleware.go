// Package middleware wraps router handlers with request logging and panic
// recovery.
package middleware

import "github.com/yourusername/spark/pkg/spark/router"

// Chain wraps h so that the first middleware is the outermost.
//
// Example:
//
//	h := Chain(r.Handler(), Logger(), Recovery())
//	// Logger -> Recovery -> router
func Chain(h router.Handler, mws ...router.Middleware) router.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

package router

import "errors"

// ErrRouteNotFound indicates no rule matched, or the matching rule's
// preconditions did not hold (storage not configured, file absent, required
// headers missing). Always answered with 404.
var ErrRouteNotFound = errors.New("router: route not found")

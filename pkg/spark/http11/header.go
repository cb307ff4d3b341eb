package http11

import "sort"

// Header holds request headers keyed by lower-cased name.
//
// Duplicate names do not accumulate: a later Set for the same name replaces
// the earlier value (last-wins). Lookups are case-insensitive because both
// insertion and lookup lower-case the name.
type Header struct {
	m map[string]string
}

// Set stores value under the lower-cased name, replacing any previous value.
func (h *Header) Set(name, value string) {
	if h.m == nil {
		h.m = make(map[string]string, 8)
	}
	h.m[lowerASCII(name)] = value
}

// Get returns the value for name, or "" when absent.
func (h *Header) Get(name string) string {
	return h.m[lowerASCII(name)]
}

// Lookup returns the value for name and whether it was present.
func (h *Header) Lookup(name string) (string, bool) {
	v, ok := h.m[lowerASCII(name)]
	return v, ok
}

// Has reports whether name is present.
func (h *Header) Has(name string) bool {
	_, ok := h.m[lowerASCII(name)]
	return ok
}

// Len returns the number of distinct header names.
func (h *Header) Len() int {
	return len(h.m)
}

// VisitAll calls visitor for each header in name order.
// Iteration stops if visitor returns false.
func (h *Header) VisitAll(visitor func(name, value string) bool) {
	names := make([]string, 0, len(h.m))
	for name := range h.m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visitor(name, h.m[name]) {
			return
		}
	}
}

// Reset clears all headers.
func (h *Header) Reset() {
	h.m = nil
}

// lowerASCII lower-cases ASCII letters, returning s itself when nothing changes.
//
// Allocation behavior: 0 allocs/op for names that are already lower-case
func lowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = toLower(b[j])
			}
			return string(b)
		}
	}
	return s
}

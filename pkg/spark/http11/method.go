package http11

// Method identifies a request method. Only GET and POST are routed; everything
// else collapses to MethodOther and falls through to 404.
type Method uint8

const (
	MethodOther Method = iota
	MethodGET
	MethodPOST
)

const (
	methodGETString  = "GET"
	methodPOSTString = "POST"
)

// ParseMethod converts a request-line method token to a Method.
// Matching is ASCII case-insensitive.
//
// Allocation behavior: 0 allocs/op
func ParseMethod(token string) Method {
	switch len(token) {
	case 3:
		if equalFoldASCII(token, methodGETString) {
			return MethodGET
		}
	case 4:
		if equalFoldASCII(token, methodPOSTString) {
			return MethodPOST
		}
	}
	return MethodOther
}

// String returns the canonical token for GET and POST, "OTHER" otherwise.
func (m Method) String() string {
	switch m {
	case MethodGET:
		return methodGETString
	case MethodPOST:
		return methodPOSTString
	default:
		return "OTHER"
	}
}

// equalFoldASCII compares two ASCII strings case-insensitively.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

// toLower converts an ASCII uppercase letter to lowercase.
// Non-letter bytes are returned unchanged.
func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

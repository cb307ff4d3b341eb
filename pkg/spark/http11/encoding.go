package http11

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Encoding is a content-coding token as used in Accept-Encoding and
// Content-Encoding. The zero value is identity (no transform).
type Encoding string

const (
	EncodingIdentity Encoding = ""
	EncodingGzip     Encoding = "gzip"
)

// SupportedEncodings is the set offered to clients by default.
// Only gzip is produced today; the slice keeps negotiation open for more.
var SupportedEncodings = []Encoding{EncodingGzip}

// Negotiate picks the response encoding for an Accept-Encoding header value.
//
// acceptEncoding is a comma-separated token list with optional whitespace
// around each token. The first entry of supported that appears in that list
// wins (tokens compare ASCII case-insensitively). An empty header, or a list
// that shares nothing with supported, yields EncodingIdentity.
//
// Allocation behavior: 0 allocs/op
func Negotiate(acceptEncoding string, supported []Encoding) Encoding {
	if acceptEncoding == "" {
		return EncodingIdentity
	}

	for _, enc := range supported {
		if enc == EncodingIdentity {
			continue
		}
		rest := acceptEncoding
		for rest != "" {
			var token string
			token, rest, _ = strings.Cut(rest, ",")
			if equalFoldASCII(strings.TrimSpace(token), string(enc)) {
				return enc
			}
		}
	}
	return EncodingIdentity
}

// gzipWriterPool holds writers at gzip.DefaultCompression.
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		return w
	},
}

// Compress applies enc to body. Identity returns body unchanged.
//
// level is a gzip compression level; gzip.DefaultCompression uses pooled writers.
func Compress(enc Encoding, body []byte, level int) ([]byte, error) {
	switch enc {
	case EncodingIdentity:
		return body, nil
	case EncodingGzip:
		return gzipBytes(body, level)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(enc))
	}
}

func gzipBytes(body []byte, level int) ([]byte, error) {
	var out bytes.Buffer

	var zw *gzip.Writer
	if level == gzip.DefaultCompression {
		zw = gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(zw)
		zw.Reset(&out)
	} else {
		var err error
		zw, err = gzip.NewWriterLevel(&out, level)
		if err != nil {
			return nil, err
		}
	}

	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

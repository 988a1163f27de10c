package httpclient

import (
	"net/http"
	"net/textproto"
)

// FlattenHeaders converts the multi-value wire form of headers into the
// single-value map form used on Request and Response.
//
// The conversion is inherently lossy: a header that appears multiple
// times collapses to its last value (last-write-wins). Keys are
// compared case-insensitively and stored under Go's canonical MIME
// casing, so "content-type" and "Content-Type" are the same key.
func FlattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		result[textproto.CanonicalMIMEHeaderKey(k)] = vs[len(vs)-1]
	}
	return result
}

// ExpandHeaders converts the single-value map form back into an
// http.Header. Each key yields exactly one value under its canonical
// casing. The iteration order of the input map is unspecified, and so
// is any ordering a caller might observe on the result.
func ExpandHeaders(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

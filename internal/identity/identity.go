// Package identity derives a stable client identity from request metadata.
package identity

import (
	"net"
	"net/http"
	"strings"
)

// Placeholder is returned when no identity can be derived. All such clients
// share one set of limits; acceptable because it only happens for requests
// with no peer address at all.
const Placeholder = "0.0.0.0"

// FromRequest resolves the client identity: the first entry of the
// X-Forwarded-For chain when present, otherwise the direct peer address.
// The header is not authenticated; trust it only behind a proxy that
// overwrites it.
func FromRequest(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first := strings.TrimSpace(strings.SplitN(xf, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return Placeholder
}

package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIdentity derives the quota identity for r. X-Forwarded-For is
// client controlled, so it is only consulted when trustForwarded is set;
// even then the identity is a coarse metering key, not an authentication
// boundary.
func clientIdentity(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package proxy

import (
	"net/http"
	"strings"
)

// hopByHopHeaders are stripped on every attempt, in addition to the
// gateway's own identity headers and anything that could be used to smuggle
// a second hop through the gateway.
var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// scrubRequestHeaders returns a copy of in with hop-by-hop headers, the
// gateway's own headers, and credential-carrying headers removed, ready for
// credential injection.
func scrubRequestHeaders(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for k, vs := range in {
		if isScrubbed(k) {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func isScrubbed(name string) bool {
	lower := strings.ToLower(name)
	switch lower {
	case "host", "x-relaykey", "x-request-id", "authorization", "cookie":
		return true
	}
	if strings.HasPrefix(lower, "proxy-") {
		return true
	}
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// scrubResponseHeaders returns a copy of in with hop-by-hop headers and
// Set-Cookie removed, ready to pass through to the client.
func scrubResponseHeaders(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for k, vs := range in {
		lower := strings.ToLower(k)
		if lower == "set-cookie" {
			continue
		}
		skip := false
		for _, h := range hopByHopHeaders {
			if strings.EqualFold(h, k) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

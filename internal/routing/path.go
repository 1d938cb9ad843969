// Package routing implements the path-splitting helpers shared by the
// limits and allowlist middleware: deriving the partner name and the
// forwarded path from the inbound `/proxy/{partner}/...` URL, independent
// of how the router captured its own route params.
package routing

import "strings"

// ProxyPartner extracts {partner} from a path shaped /proxy/{partner}/...,
// returning "-" if the path doesn't have that shape.
func ProxyPartner(path string) string {
	parts := strings.SplitN(path, "/", 4)
	// parts[0] is always "" (path starts with "/"); parts[1] should be "proxy".
	if len(parts) < 3 || parts[1] != "proxy" || parts[2] == "" {
		return "-"
	}
	return parts[2]
}

// ForwardedPath extracts everything after /proxy/{partner}, i.e. splits the
// inbound path into at most four components by "/" and takes the fourth
// prefixed with "/"; empty becomes "/".
func ForwardedPath(path string) string {
	parts := strings.SplitN(path, "/", 4)
	if len(parts) < 4 || parts[3] == "" {
		return "/"
	}
	return "/" + parts[3]
}

package registry

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Location is the decomposition of a route or request URL that the
// registries work with.
type Location struct {
	// Scheme is the lowercased protocol, empty for host-less URLs.
	Scheme string

	// HostKey is the normalized "host[:port]" used to select a VerbSet.
	HostKey string

	// Path is the escaped path, always starting with "/".
	Path string

	// RawQuery is the query string without the leading "?".
	RawQuery string

	// FullPath is Path plus "?RawQuery" when a query is present.
	FullPath string

	// PatternPath is the unescaped path, used when the URL is a route pattern.
	PatternPath string
}

// defaultPorts maps a scheme to the port that is implied when omitted.
var defaultPorts = map[string]string{
	"http":  "80",
	"ws":    "80",
	"https": "443",
	"wss":   "443",
}

// ParseURL decomposes raw. Relative URLs are resolved against base when base
// is non-nil; otherwise they keep an empty host key.
func ParseURL(raw string, base *url.URL) (*Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" && base != nil {
		u = base.ResolveReference(u)
	}

	key, err := HostKey(u.Scheme, u.Host)
	if err != nil {
		return nil, err
	}

	loc := &Location{
		Scheme:      strings.ToLower(u.Scheme),
		HostKey:     key,
		Path:        ensureLeadingSlash(u.EscapedPath()),
		RawQuery:    u.RawQuery,
		PatternPath: ensureLeadingSlash(u.Path),
	}
	loc.FullPath = loc.Path
	if loc.RawQuery != "" {
		loc.FullPath += "?" + loc.RawQuery
	}
	return loc, nil
}

// HostKey normalizes host for the given scheme: the hostname is case-folded
// and converted to its ASCII form, and the port is dropped when it is the
// scheme's default.
func HostKey(scheme, host string) (string, error) {
	if host == "" {
		return "", nil
	}
	scheme = strings.ToLower(scheme)

	hostname, port := splitHostPort(host)
	hostname = strings.ToLower(hostname)
	if !isASCII(hostname) {
		ascii, err := idna.Lookup.ToASCII(hostname)
		if err != nil {
			return "", fmt.Errorf("invalid host %q: %w", host, err)
		}
		hostname = ascii
	}

	if port != "" && defaultPorts[scheme] == port {
		port = ""
	}
	if port == "" {
		if strings.Contains(hostname, ":") {
			return "[" + hostname + "]", nil
		}
		return hostname, nil
	}
	return net.JoinHostPort(hostname, port), nil
}

func splitHostPort(host string) (hostname, port string) {
	u := url.URL{Host: host}
	return u.Hostname(), u.Port()
}

func ensureLeadingSlash(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

package matching

import (
	"net/url"
	"strings"
)

// ParseQuery decodes a raw query string into url.Values. Unlike
// url.ParseQuery it never fails: malformed escapes are kept verbatim.
// A leading "?" is accepted and array-style keys ("tags[]") are folded into
// their bare name.
func ParseQuery(raw string) url.Values {
	values := make(url.Values)
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return values
	}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeQuery(key)
		if key == "" {
			continue
		}
		key = strings.TrimSuffix(key, "[]")
		values[key] = append(values[key], unescapeQuery(value))
	}
	return values
}

func unescapeQuery(s string) string {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return v
}

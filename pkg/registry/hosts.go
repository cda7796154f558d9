package registry

import (
	"fmt"
	"net/url"
	"sort"
)

// Hosts maps host keys to their VerbSet.
type Hosts[T any] struct {
	base       *url.URL
	registries map[string]*VerbSet[T]
}

// NewHosts creates an empty host table. Relative URLs passed to ForURL and
// Lookup are resolved against baseURL; an empty baseURL leaves them under
// the empty host key.
func NewHosts[T any](baseURL string) (*Hosts[T], error) {
	h := &Hosts[T]{registries: make(map[string]*VerbSet[T])}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
		}
		if !base.IsAbs() || base.Host == "" {
			return nil, fmt.Errorf("base url %q must be absolute", baseURL)
		}
		h.base = base
	}
	return h, nil
}

// Base returns the URL relative references are resolved against.
func (h *Hosts[T]) Base() *url.URL {
	return h.base
}

// Parse decomposes raw against the table's base URL.
func (h *Hosts[T]) Parse(raw string) (*Location, error) {
	return ParseURL(raw, h.base)
}

// ForURL returns the VerbSet for the host of raw, creating it on first use.
func (h *Hosts[T]) ForURL(raw string) (*VerbSet[T], *Location, error) {
	loc, err := h.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return h.ForKey(loc.HostKey), loc, nil
}

// ForKey returns the VerbSet for an already normalized host key, creating
// it on first use.
func (h *Hosts[T]) ForKey(key string) *VerbSet[T] {
	vs, ok := h.registries[key]
	if !ok {
		vs = newVerbSet[T](key)
		h.registries[key] = vs
	}
	return vs
}

// Lookup returns the VerbSet for key without creating one.
func (h *Hosts[T]) Lookup(key string) (*VerbSet[T], bool) {
	vs, ok := h.registries[key]
	return vs, ok
}

// Recognize resolves a request location against the table. Unknown hosts
// and unsupported verbs simply do not match.
func (h *Hosts[T]) Recognize(verb string, loc *Location) (*Match[T], bool) {
	vs, ok := h.Lookup(loc.HostKey)
	if !ok {
		return nil, false
	}
	reg := vs.For(verb)
	if reg == nil {
		return nil, false
	}
	return reg.Recognize(loc.FullPath)
}

// Keys returns the known host keys in sorted order.
func (h *Hosts[T]) Keys() []string {
	keys := make([]string, 0, len(h.registries))
	for k := range h.registries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

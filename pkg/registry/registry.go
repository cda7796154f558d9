package registry

import (
	"net/url"
	"strings"

	"github.com/getmockd/intercept/internal/matching"
)

// Supported HTTP verbs, in the order VerbSet creates their registries.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodPatch   = "PATCH"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// Verbs lists every verb that owns a PathRegistry.
var Verbs = []string{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodPatch,
	MethodHead,
	MethodOptions,
}

// IsVerb reports whether verb (case-insensitive) is supported.
func IsVerb(verb string) bool {
	verb = strings.ToUpper(verb)
	for _, v := range Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Entry pairs a compiled path pattern with its target. Entries are
// immutable once added.
type Entry[T any] struct {
	Pattern *matching.Pattern
	Target  T

	seq int
}

// Seq returns the registration position of the entry within its registry.
func (e *Entry[T]) Seq() int {
	return e.seq
}

// Match is the result of recognizing a concrete path.
type Match[T any] struct {
	Entry       *Entry[T]
	Params      map[string]string
	QueryParams url.Values
}

// PathRegistry is the ordered route table of one verb at one host.
type PathRegistry[T any] struct {
	// ranked is kept sorted by specificity; equal specificities keep
	// registration order.
	ranked []*Entry[T]
	next   int
}

// NewPathRegistry creates an empty registry.
func NewPathRegistry[T any]() *PathRegistry[T] {
	return &PathRegistry[T]{}
}

// Add compiles pattern and appends it with target.
func (r *PathRegistry[T]) Add(pattern string, target T) (*Entry[T], error) {
	compiled, err := matching.CompilePath(pattern)
	if err != nil {
		return nil, err
	}

	entry := &Entry[T]{Pattern: compiled, Target: target, seq: r.next}
	r.next++

	spec := compiled.Specificity()
	pos := len(r.ranked)
	for i, existing := range r.ranked {
		if spec.MoreSpecificThan(existing.Pattern.Specificity()) {
			pos = i
			break
		}
	}
	r.ranked = append(r.ranked, nil)
	copy(r.ranked[pos+1:], r.ranked[pos:])
	r.ranked[pos] = entry

	return entry, nil
}

// Recognize resolves fullPath (path plus optional query) to the best entry.
// Query parameters are decoded whether or not the path matched anything
// so callers can inspect them; ok reports whether an entry matched.
func (r *PathRegistry[T]) Recognize(fullPath string) (*Match[T], bool) {
	path, rawQuery := matching.SplitPath(fullPath)
	for _, entry := range r.ranked {
		params, ok := entry.Pattern.Match(path)
		if !ok {
			continue
		}
		return &Match[T]{
			Entry:       entry,
			Params:      params,
			QueryParams: matching.ParseQuery(rawQuery),
		}, true
	}
	return nil, false
}

// Entries returns the entries in registration order.
func (r *PathRegistry[T]) Entries() []*Entry[T] {
	out := make([]*Entry[T], len(r.ranked))
	for _, e := range r.ranked {
		out[e.seq] = e
	}
	return out
}

// Len returns the number of entries.
func (r *PathRegistry[T]) Len() int {
	return len(r.ranked)
}

// VerbSet holds one PathRegistry per supported verb.
type VerbSet[T any] struct {
	host  string
	verbs map[string]*PathRegistry[T]
}

func newVerbSet[T any](host string) *VerbSet[T] {
	vs := &VerbSet[T]{host: host, verbs: make(map[string]*PathRegistry[T], len(Verbs))}
	for _, v := range Verbs {
		vs.verbs[v] = NewPathRegistry[T]()
	}
	return vs
}

// Host returns the host key the set was created for.
func (vs *VerbSet[T]) Host() string {
	return vs.host
}

// For returns the registry for verb, or nil when the verb is not supported.
func (vs *VerbSet[T]) For(verb string) *PathRegistry[T] {
	return vs.verbs[strings.ToUpper(verb)]
}

package matching

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// WildcardParam is the parameter name used for an unnamed trailing wildcard.
const WildcardParam = "*"

// Errors returned by CompilePath.
var (
	ErrEmptyParamName      = errors.New("dynamic segment has no name")
	ErrWildcardNotTrailing = errors.New("wildcard segment must be the last segment")
	ErrDuplicateParam      = errors.New("parameter name used twice")
)

// SegmentKind identifies how a pattern segment matches.
type SegmentKind int

// Segment kinds.
const (
	SegmentStatic SegmentKind = iota
	SegmentDynamic
	SegmentWildcard
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentDynamic:
		return "dynamic"
	case SegmentWildcard:
		return "wildcard"
	default:
		return "static"
	}
}

// Segment is one compiled piece of a path pattern. Value holds the literal
// text for static segments and the parameter name otherwise.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// Pattern is a compiled route path.
type Pattern struct {
	raw         string
	segments    []Segment
	specificity Specificity
}

// CompilePath parses a route pattern such as "/users/:id/files/*path".
// Any query string or fragment on the pattern is ignored.
func CompilePath(pattern string) (*Pattern, error) {
	path, _ := SplitPath(pattern)
	parts := splitSegments(path)

	p := &Pattern{raw: pattern, segments: make([]Segment, 0, len(parts))}
	seen := make(map[string]bool)

	for i, part := range parts {
		var seg Segment
		switch {
		case strings.HasPrefix(part, ":"):
			seg = Segment{Kind: SegmentDynamic, Value: part[1:]}
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			seg = Segment{Kind: SegmentDynamic, Value: part[1 : len(part)-1]}
		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q", ErrWildcardNotTrailing, pattern)
			}
			name := part[1:]
			if name == "" {
				name = WildcardParam
			}
			seg = Segment{Kind: SegmentWildcard, Value: name}
		default:
			seg = Segment{Kind: SegmentStatic, Value: unescape(part)}
		}

		switch seg.Kind {
		case SegmentDynamic:
			if seg.Value == "" {
				return nil, fmt.Errorf("%w: %q", ErrEmptyParamName, pattern)
			}
			p.specificity.Dynamics++
		case SegmentWildcard:
			p.specificity.Wildcards++
		default:
			p.specificity.Statics++
		}
		if seg.Kind != SegmentStatic {
			if seen[seg.Value] {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, seg.Value, pattern)
			}
			seen[seg.Value] = true
		}

		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// MustCompilePath is like CompilePath but panics on an invalid pattern.
func MustCompilePath(pattern string) *Pattern {
	p, err := CompilePath(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern as it was registered.
func (p *Pattern) String() string {
	return p.raw
}

// Segments returns a copy of the compiled segments.
func (p *Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Specificity returns the segment counts used to rank overlapping patterns.
func (p *Pattern) Specificity() Specificity {
	return p.specificity
}

// Match checks a concrete path against the pattern and returns the decoded
// parameters. Query strings and fragments on path are ignored, as are
// leading and trailing slashes.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	path, _ = SplitPath(path)
	parts := splitSegments(path)

	params := make(map[string]string)
	for i, seg := range p.segments {
		if seg.Kind == SegmentWildcard {
			if i >= len(parts) {
				return nil, false
			}
			params[seg.Value] = unescape(strings.Join(parts[i:], "/"))
			return params, true
		}
		if i >= len(parts) {
			return nil, false
		}
		switch seg.Kind {
		case SegmentDynamic:
			if parts[i] == "" {
				return nil, false
			}
			params[seg.Value] = unescape(parts[i])
		default:
			if parts[i] != seg.Value && unescape(parts[i]) != seg.Value {
				return nil, false
			}
		}
	}

	if len(parts) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// SplitPath separates a full path into its path and raw query parts.
// Any fragment is dropped.
func SplitPath(fullPath string) (path, rawQuery string) {
	if i := strings.IndexByte(fullPath, '#'); i >= 0 {
		fullPath = fullPath[:i]
	}
	if i := strings.IndexByte(fullPath, '?'); i >= 0 {
		return fullPath[:i], fullPath[i+1:]
	}
	return fullPath, ""
}

// splitSegments splits a path into segments, ignoring the leading and
// trailing slash. The root path has no segments.
func splitSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	v, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return v
}

package matching

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		path       string
		wantMatch  bool
		wantParams map[string]string
	}{
		{"exact match", "/api/users", "/api/users", true, map[string]string{}},
		{"trailing slash on path", "/api/users", "/api/users/", true, map[string]string{}},
		{"trailing slash on pattern", "/api/users/", "/api/users", true, map[string]string{}},
		{"missing leading slash", "api/users", "/api/users", true, map[string]string{}},
		{"literal mismatch", "/api/users", "/api/user", false, nil},
		{"too short", "/api/users", "/api", false, nil},
		{"too long", "/api/users", "/api/users/1", false, nil},
		{"root", "/", "/", true, map[string]string{}},
		{"empty pattern is root", "", "/", true, map[string]string{}},
		{"root does not match child", "/", "/a", false, nil},
		{"colon param", "/items/:id", "/items/42", true, map[string]string{"id": "42"}},
		{"brace param", "/items/{id}", "/items/42", true, map[string]string{"id": "42"}},
		{"query ignored", "/items/:id", "/items/42?x=1", true, map[string]string{"id": "42"}},
		{"fragment ignored", "/items/:id", "/items/42#top", true, map[string]string{"id": "42"}},
		{"param decoded", "/items/:id", "/items/a%20b", true, map[string]string{"id": "a b"}},
		{"encoded static", "/hello world", "/hello%20world", true, map[string]string{}},
		{
			"two params",
			"/users/:user/posts/:post",
			"/users/7/posts/9",
			true,
			map[string]string{"user": "7", "post": "9"},
		},
		{"param does not span segments", "/items/:id", "/items/4/2", false, nil},
		{"named wildcard", "/files/*path", "/files/a/b/c.txt", true, map[string]string{"path": "a/b/c.txt"}},
		{"bare wildcard", "/files/*", "/files/a/b", true, map[string]string{"*": "a/b"}},
		{"wildcard needs a segment", "/files/*path", "/files", false, nil},
		{"wildcard only", "/*all", "/anything/here", true, map[string]string{"all": "anything/here"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePath(tt.pattern)
			require.NoError(t, err)

			params, ok := p.Match(tt.path)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompilePathErrors(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr error
	}{
		{"/items/:", ErrEmptyParamName},
		{"/items/{}", ErrEmptyParamName},
		{"/files/*rest/more", ErrWildcardNotTrailing},
		{"/a/:id/b/:id", ErrDuplicateParam},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := CompilePath(tt.pattern)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMustCompilePathPanics(t *testing.T) {
	assert.Panics(t, func() { MustCompilePath("/a/*x/b") })
	assert.NotPanics(t, func() { MustCompilePath("/a/:x") })
}

func TestPatternSpecificity(t *testing.T) {
	p := MustCompilePath("/users/:id/files/*path")
	assert.Equal(t, Specificity{Statics: 2, Dynamics: 1, Wildcards: 1}, p.Specificity())

	segs := p.Segments()
	require.Len(t, segs, 4)
	assert.Equal(t, SegmentStatic, segs[0].Kind)
	assert.Equal(t, SegmentDynamic, segs[1].Kind)
	assert.Equal(t, "id", segs[1].Value)
	assert.Equal(t, SegmentWildcard, segs[3].Kind)
	assert.Equal(t, "path", segs[3].Value)
}

func TestSpecificityOrdering(t *testing.T) {
	patterns := []string{
		"/*rest",
		"/users/*rest",
		"/users/:id",
		"/:kind/:id",
		"/users/me",
	}

	compiled := make([]*Pattern, len(patterns))
	for i, raw := range patterns {
		compiled[i] = MustCompilePath(raw)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Specificity().MoreSpecificThan(compiled[j].Specificity())
	})

	got := make([]string, len(compiled))
	for i, p := range compiled {
		got[i] = p.String()
	}
	assert.Equal(t, []string{"/users/me", "/users/:id", "/:kind/:id", "/users/*rest", "/*rest"}, got)
}

func TestSpecificityEqualIsNotMore(t *testing.T) {
	a := MustCompilePath("/a/:x").Specificity()
	b := MustCompilePath("/b/:y").Specificity()
	assert.False(t, a.MoreSpecificThan(b))
	assert.False(t, b.MoreSpecificThan(a))
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in        string
		wantPath  string
		wantQuery string
	}{
		{"/a/b", "/a/b", ""},
		{"/a?x=1", "/a", "x=1"},
		{"/a?x=1#frag", "/a", "x=1"},
		{"/a#frag?x=1", "/a", ""},
		{"?x=1", "", "x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			path, query := SplitPath(tt.in)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

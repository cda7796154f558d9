package config

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// RoutesFromOpenAPI loads an OpenAPI 3 document and returns one route for
// every operation that documents an example for a 2xx response. The route
// URL is the operation path prefixed with the first server URL, unless that
// URL uses server variables. Path templates such as {id} are kept as
// dynamic segments.
func RoutesFromOpenAPI(path string) ([]Route, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validating OpenAPI document: %w", err)
	}
	return routesFromDoc(doc, path), nil
}

func routesFromDoc(doc *openapi3.T, source string) []Route {
	prefix := serverPrefix(doc)

	var routes []Route
	if doc.Paths == nil {
		return routes
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	for _, p := range keys {
		ops := paths[p].Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		for _, method := range methods {
			route, ok := exampleRoute(ops[method])
			if !ok {
				continue
			}
			route.Method = strings.ToUpper(method)
			route.URL = prefix + p
			route.Source = source
			routes = append(routes, route)
		}
	}
	return routes
}

// exampleRoute builds a route from the lowest 2xx response that carries an
// example.
func exampleRoute(op *openapi3.Operation) (Route, bool) {
	if op == nil || op.Responses == nil {
		return Route{}, false
	}

	responses := op.Responses.Map()
	codes := make([]int, 0, len(responses))
	for key := range responses {
		code, err := strconv.Atoi(key)
		if err != nil || code < 200 || code > 299 {
			continue
		}
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		ref := responses[strconv.Itoa(code)]
		if ref == nil || ref.Value == nil {
			continue
		}
		if code == http.StatusNoContent {
			return Route{Status: code}, true
		}
		contentType, example, ok := pickExample(ref.Value.Content)
		if !ok {
			continue
		}
		r := Route{Status: code, Headers: map[string]string{"Content-Type": contentType}}
		if s, isString := example.(string); isString && !strings.Contains(contentType, "json") {
			r.Body = s
		} else {
			r.JSON = example
		}
		return r, true
	}
	return Route{}, false
}

// pickExample prefers application/json, then the remaining media types in
// sorted order. Within a media type the example field wins over the first
// named example.
func pickExample(content openapi3.Content) (string, any, bool) {
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.SliceStable(types, func(i, j int) bool {
		ji, jj := strings.HasPrefix(types[i], "application/json"), strings.HasPrefix(types[j], "application/json")
		if ji != jj {
			return ji
		}
		return types[i] < types[j]
	})

	for _, ct := range types {
		media := content[ct]
		if media == nil {
			continue
		}
		if media.Example != nil {
			return ct, media.Example, true
		}
		names := make([]string, 0, len(media.Examples))
		for name := range media.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ex := media.Examples[name]
			if ex != nil && ex.Value != nil && ex.Value.Value != nil {
				return ct, ex.Value.Value, true
			}
		}
		if media.Schema != nil && media.Schema.Value != nil && media.Schema.Value.Example != nil {
			return ct, media.Schema.Value.Example, true
		}
	}
	return "", nil, false
}

func serverPrefix(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	u := doc.Servers[0].URL
	if strings.Contains(u, "{") || u == "/" {
		return ""
	}
	return strings.TrimSuffix(u, "/")
}

// Package matching provides the path and query matching primitives used by
// the route registries.
//
// A route pattern is a slash separated list of segments:
//
//   - Static segments match literally: "/api/users"
//   - Dynamic segments capture one path segment: "/users/:id" or "/users/{id}"
//   - A trailing wildcard captures the rest of the path: "/files/*path" or "/files/*"
//
// Patterns are compiled once with CompilePath and matched many times. When
// several patterns match the same path, Specificity orders them: fewer
// wildcards first, then fewer dynamic segments, then more static segments.
// Callers break remaining ties by registration order.
//
// Query strings are decoded independently of path matching with ParseQuery.
package matching

// Package registry holds the route tables consulted for every intercepted
// request.
//
// Routes are partitioned twice: first by host key (the normalized
// "host[:port]" of the route URL), then by HTTP verb. Each host owns exactly
// one VerbSet with a PathRegistry for each of the seven supported verbs.
// Host entries are created lazily by Hosts.ForURL and never removed, so a
// route registered through one spelling of a URL and a request made through
// another spelling that normalizes to the same key always meet in the same
// PathRegistry.
//
// The types in this package are not safe for concurrent use; the engine
// serializes access.
package registry

// Package engine intercepts outgoing HTTP requests and answers them from
// registered routes instead of the network.
//
// # Overview
//
// An Engine owns a route table partitioned by host and verb. Each route
// binds a path pattern either to a Handler or to passthrough, which
// forwards the request to the real transport untouched:
//
//	e, err := engine.New(engine.WithBaseURL("http://api.example.com"))
//	if err != nil {
//	    return err
//	}
//	defer e.Shutdown()
//
//	e.Get("/items/:id", func(req *engine.Request) (engine.Result, error) {
//	    return engine.Reply(200, map[string]string{"Content-Type": "text/plain"}, "item "+req.Params["id"]), nil
//	}, nil)
//	e.Passthrough("GET", "https://auth.example.com/*")
//
//	resp, err := e.Client().Get("http://api.example.com/items/42?x=1")
//
// # Dispatch
//
// Every request is dispatched in two phases. CheckPassthrough runs first:
// when the matched route is a passthrough route, or the engine forces
// passthrough, the request goes to the native transport. Otherwise
// HandleRequest matches the request again, counts the call, invokes the
// handler and turns its Result into a response.
//
// # Timing
//
// A handler's Policy decides when its response is delivered: Sync delivers
// immediately, Delay(d) after d on the engine's clock (emitting progress
// notifications meanwhile) and Manual only when Resolve is called. Each
// request resolves at most once; aborting a request (cancelling its
// context) stops its timers and discards its response.
//
// # Interception
//
// Requests reach the engine through Transport, an http.RoundTripper.
// An Interceptor installs that transport somewhere callers already look,
// such as http.DefaultTransport or a specific *http.Client.
package engine

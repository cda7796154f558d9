// Package testing provides a testing SDK for intercepting HTTP requests in
// Go tests.
//
// New creates an engine tied to the test. Requests sent through Client are
// matched against the routes registered with Mock; nothing leaves the
// process unless a route is marked Passthrough.
//
// # Basic Usage
//
//	func TestMyAPI(t *testing.T) {
//	    m := intercepttest.New(t)
//
//	    m.Mock("GET", "https://api.example.com/users/:id").
//	        WithJSON(map[string]any{"id": 123, "name": "Test User"}).
//	        Reply()
//
//	    resp, err := m.Client().Get("https://api.example.com/users/123")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer resp.Body.Close()
//
//	    m.AssertCalled(t, "GET", "https://api.example.com/users/:id")
//	    m.AssertNoUnhandled(t)
//	}
//
// # Fluent Builder API
//
//	m.Mock("POST", "/api/items").
//	    WithStatus(201).
//	    WithHeader("Location", "/api/items/1").
//	    WithBody(`{"id": 1}`).
//	    WithDelay("100ms").
//	    Reply()
//
// # Controlling Delivery
//
// Manual routes hold their responses until they are resolved, which makes
// loading states observable:
//
//	m.Mock("GET", "/slow").Manual().Reply()
//	go client.Get("http://localhost/slow")
//	m.WaitForPending(1, time.Second)
//	// ... assert on the in-flight state ...
//	m.ResolveAll()
//
// # Assertions
//
//	m.AssertCalledTimes(t, "POST", "/api/items", 3)
//	m.AssertNotCalled(t, "DELETE", "/api/items/:id")
//	m.AssertNoPending(t)
//
//	for _, req := range m.Requests() {
//	    req.AssertHeader(t, "Content-Type", "application/json")
//	    req.AssertJSONBody(t, `{"name": "new"}`)
//	}
package testing

package engine

import (
	"errors"
	"net/http"
	"sync"
)

// Interceptor puts the engine transport where callers pick up their
// transport, and takes it away again.
type Interceptor interface {
	// Install replaces the current transport with t and returns the
	// transport it replaced.
	Install(t http.RoundTripper) (native http.RoundTripper, err error)

	// Uninstall restores the replaced transport.
	Uninstall() error
}

// ErrNotInstalled is returned by Uninstall on an interceptor that was never
// installed.
var ErrNotInstalled = errors.New("interceptor is not installed")

// globalMu serializes swaps of http.DefaultTransport.
var globalMu sync.Mutex

type globalTransport struct {
	mu        sync.Mutex
	installed bool
	native    http.RoundTripper
}

// GlobalTransport intercepts http.DefaultTransport, and with it
// http.DefaultClient and every client without its own transport.
func GlobalTransport() Interceptor {
	return &globalTransport{}
}

func (g *globalTransport) Install(t http.RoundTripper) (http.RoundTripper, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.installed {
		return nil, errors.New("global transport interceptor already installed")
	}

	globalMu.Lock()
	g.native = http.DefaultTransport
	http.DefaultTransport = t
	globalMu.Unlock()

	g.installed = true
	return g.native, nil
}

func (g *globalTransport) Uninstall() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.installed {
		return ErrNotInstalled
	}

	globalMu.Lock()
	http.DefaultTransport = g.native
	globalMu.Unlock()

	g.installed = false
	return nil
}

type clientTransport struct {
	client    *http.Client
	mu        sync.Mutex
	installed bool
	previous  http.RoundTripper
}

// ClientTransport intercepts a single client by replacing its Transport.
func ClientTransport(c *http.Client) Interceptor {
	return &clientTransport{client: c}
}

func (c *clientTransport) Install(t http.RoundTripper) (http.RoundTripper, error) {
	if c.client == nil {
		return nil, errors.New("client transport interceptor needs a client")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		return nil, errors.New("client transport interceptor already installed")
	}

	c.previous = c.client.Transport
	c.client.Transport = t
	c.installed = true

	if c.previous == nil {
		return defaultNative(), nil
	}
	return c.previous, nil
}

func (c *clientTransport) Uninstall() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.installed {
		return ErrNotInstalled
	}
	c.client.Transport = c.previous
	c.installed = false
	return nil
}

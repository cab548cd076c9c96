// package server contains the HTTP surface of the player: auth flow, API proxy, static client
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, rate limiting, CORS, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the player service.
// Implementations handle groups of endpoints (auth flow, proxy endpoints).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Wrap applies middleware to a [Handler] while preserving its routes, for
// middleware that should cover one handler group instead of the whole router.
func Wrap(h Handler, middleware ...Middleware) Handler {
	wrapped := http.Handler(h)
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}
	return &wrappedHandler{Handler: wrapped, routes: h.Routes()}
}

type wrappedHandler struct {
	http.Handler
	routes []string
}

func (w *wrappedHandler) Routes() []string { return w.routes }

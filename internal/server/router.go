package server

import (
	"fmt"
	"net/http"
)

// LoopbackRouter is a small [Router] for the account-linking listener.
//
// Built on [http.ServeMux] method patterns, so Handle("GET", "/callback", h)
// rejects other verbs with 405 for free.
type LoopbackRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewLoopbackRouter creates an empty [LoopbackRouter].
func NewLoopbackRouter() *LoopbackRouter {
	return &LoopbackRouter{mux: http.NewServeMux()}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
func (r *LoopbackRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the given HTTP method and path,
// wrapped with all registered middleware.
func (r *LoopbackRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(fmt.Sprintf("%s %s", method, path), r.apply(handler))
}

// Handler registers a custom [Handler] on every route it declares.
func (r *LoopbackRouter) Handler(handler Handler) {
	wrapped := r.apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *LoopbackRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// apply wraps a handler with the middleware stack, last added wrapping first.
func (r *LoopbackRouter) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

package server

import (
	"net/http"

	"moviemark/internal/handlers"
)

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Router registers method-scoped routes on an http.ServeMux and wraps
// each with the middleware stack.
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter() *Router {
	r := &Router{mux: http.NewServeMux()}
	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "Not found")
	})
	return r
}

// Use appends middleware; the first one added is the outermost.
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and pattern. Patterns follow
// http.ServeMux syntax, including path wildcards.
func (r *Router) Handle(method, pattern string, handler http.Handler) {
	r.mux.Handle(method+" "+pattern, r.apply(handler))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

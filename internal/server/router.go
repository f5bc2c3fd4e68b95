package server

import "net/http"

type Router interface {
	// Handle registers a new route with the given pattern and handler on the router mux
	Handle(pattern string, handler http.Handler)
	// HandleFunc registers a new route with the given pattern and handler function on the router mux
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
	// ServeHTTP dispatches the request through the router middleware to the mux
	ServeHTTP(w http.ResponseWriter, r *http.Request)
	// Use adds middleware applied to every request served by the router
	Use(middleware ...Middleware)
	// Group called on the router would create a group with the given prefix
	// and would be added to the root group of the router
	Group(prefix string) *RouterGroup
}

type Endpoint struct {
	Method string
	Path   string
}

// DefaultRouter
type DefaultRouter struct {
	// mux is the default http.ServeMux
	mux *http.ServeMux
	// middleware is applied around the mux for every request
	middleware []Middleware
	// handler is the mux wrapped in middleware, built on first use
	handler http.Handler
	// rootGroup is the root RouterGroup
	rootGroup *RouterGroup
	// Endpoints is the list of all registered endpoints
	Endpoints []Endpoint
}

// NewDefaultRouter creates a new DefaultRouter whose groups share the given prefix
func NewDefaultRouter(prefix string) *DefaultRouter {
	dr := &DefaultRouter{mux: http.NewServeMux()}
	dr.rootGroup = &RouterGroup{prefix: prefix, router: dr}
	return dr
}

func (dr *DefaultRouter) Handle(pattern string, handler http.Handler) {
	method, path := splitPattern(pattern)
	dr.Endpoints = append(dr.Endpoints, Endpoint{Method: method, Path: path})
	dr.mux.Handle(pattern, handler)
}

func (dr *DefaultRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if dr.handler == nil {
		dr.handler = chain(dr.mux, dr.middleware)
	}
	dr.handler.ServeHTTP(w, req)
}

func (dr *DefaultRouter) HandleFunc(pattern string, handlerFunc func(http.ResponseWriter, *http.Request)) {
	dr.Handle(pattern, http.HandlerFunc(handlerFunc))
}

// Use must be called before the router serves its first request.
func (dr *DefaultRouter) Use(middleware ...Middleware) {
	dr.middleware = append(dr.middleware, middleware...)
	dr.handler = nil
}

// Group creates a new RouterGroup under the rootGroup with the given prefix
func (dr *DefaultRouter) Group(prefix string) *RouterGroup {
	return dr.rootGroup.Group(prefix)
}

func chain(h http.Handler, middleware []Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

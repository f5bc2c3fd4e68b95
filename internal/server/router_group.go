package server

import (
	"net/http"
	"strings"
)

// RouterGroup represents a group of routes with a common prefix and middleware
type RouterGroup struct {
	prefix     string
	middleware []Middleware
	router     Router
}

func (rg *RouterGroup) Use(middleware ...Middleware) {
	rg.middleware = append(rg.middleware, middleware...)
}

// Handle registers handler under the group prefix. Patterns may carry a
// method, as in "GET /device"; the prefix goes in front of the path.
func (rg *RouterGroup) Handle(pattern string, handler http.Handler) {
	method, path := splitPattern(pattern)
	fullPattern := rg.prefix + path
	if method != "" {
		fullPattern = method + " " + fullPattern
	}
	rg.router.Handle(fullPattern, chain(handler, rg.middleware))
}

func (rg *RouterGroup) HandleFunc(pattern string, handlerFunc func(http.ResponseWriter, *http.Request)) {
	rg.Handle(pattern, http.HandlerFunc(handlerFunc))
}

func (rg *RouterGroup) Group(prefix string) *RouterGroup {
	return &RouterGroup{
		prefix:     rg.prefix + prefix,
		middleware: append([]Middleware{}, rg.middleware...),
		router:     rg.router,
	}
}

// splitPattern separates an optional leading method from a ServeMux pattern.
func splitPattern(pattern string) (method, path string) {
	if i := strings.IndexByte(pattern, ' '); i > 0 && !strings.HasPrefix(pattern, "/") {
		return pattern[:i], strings.TrimLeft(pattern[i+1:], " ")
	}
	return "", pattern
}

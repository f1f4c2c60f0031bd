// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mux provides an exact matching request multiplexer built on [http.ServeMux].
package mux

import (
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"
)

// Method defines an HTTP method expected to be used in a RESTful API.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPut    Method = http.MethodPut
	MethodPost   Method = http.MethodPost
	MethodDelete Method = http.MethodDelete
)

// HttpOption defines a configuration option for [Http].
type HttpOption func(*Http)

// NotFoundHandler will register the given [http.Handler] to handle
// any HTTP requests that do not match any registered pattern.
func NotFoundHandler(h http.Handler) HttpOption {
	return func(mux *Http) {
		mux.notFound = h
	}
}

// MethodNotAllowedHandler will register the given [http.Handler] to handle
// any HTTP requests whose method does not match the methods registered to a pattern.
//
// If not set, a 405 with an Allow header listing the registered methods is returned.
func MethodNotAllowedHandler(h http.Handler) HttpOption {
	return func(mux *Http) {
		mux.methodNotAllowed = h
	}
}

// Http wraps a [http.ServeMux] and only dispatches requests whose method and
// path exactly match a registered pair. Unlike [http.ServeMux] it will not
// serve HEAD requests with a GET handler, will not redirect non-canonical paths
// and will not treat a trailing slash as equivalent to no trailing slash.
type Http struct {
	mux *http.ServeMux

	initFallbacksOnce sync.Once
	notFound          http.Handler
	methodNotAllowed  http.Handler

	routes map[string]*route
}

// NewHttp initializes a request multiplexer using the standard [http.ServeMux].
func NewHttp(opts ...HttpOption) *Http {
	mux := &Http{
		mux:    http.NewServeMux(),
		routes: make(map[string]*route),
	}
	for _, opt := range opts {
		opt(mux)
	}
	return mux
}

// Handle will register the [http.Handler] for the given method and pattern.
// The pattern "/" only matches the root path. Handle must not be called
// once the mux has started serving requests.
func (m *Http) Handle(method Method, pattern string, h http.Handler) {
	// "/" would otherwise match every path
	if pattern == "/" {
		pattern = "/{$}"
	}

	rt, ok := m.routes[pattern]
	if !ok {
		rt = &route{
			handlers: make(map[Method]http.Handler),
			mux:      m,
		}
		m.routes[pattern] = rt
		m.mux.Handle(pattern, rt)
	}
	rt.handlers[method] = h
}

// ServeHTTP implements the [http.Handler] interface.
func (m *Http) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.initFallbacksOnce.Do(m.registerFallbackHandlers)

	if !isCanonical(r.URL.Path) {
		m.serveNotFound(w, r)
		return
	}
	m.mux.ServeHTTP(w, r)
}

func (m *Http) registerFallbackHandlers() {
	if m.notFound == nil {
		return
	}
	if _, ok := m.routes["/{path...}"]; ok {
		return
	}
	m.mux.Handle("/{path...}", m.notFound)
}

func (m *Http) serveNotFound(w http.ResponseWriter, r *http.Request) {
	if m.notFound != nil {
		m.notFound.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func (m *Http) serveMethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed []Method) {
	if m.methodNotAllowed != nil {
		m.methodNotAllowed.ServeHTTP(w, r)
		return
	}

	ss := make([]string, len(allowed))
	for i, method := range allowed {
		ss[i] = string(method)
	}
	w.Header().Set("Allow", strings.Join(ss, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}

type route struct {
	handlers map[Method]http.Handler
	mux      *Http
}

func (rt *route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, ok := rt.handlers[Method(r.Method)]
	if ok {
		h.ServeHTTP(w, r)
		return
	}
	rt.mux.serveMethodNotAllowed(w, r, rt.methods())
}

func (rt *route) methods() []Method {
	methods := make([]Method, 0, len(rt.handlers))
	for method := range rt.handlers {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	return methods
}

// isCanonical reports whether p is the form [http.ServeMux] would
// otherwise redirect to.
func isCanonical(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	cleaned := path.Clean(p)
	if p == cleaned {
		return true
	}
	// path.Clean strips trailing slashes
	return strings.HasSuffix(p, "/") && p == cleaned+"/"
}

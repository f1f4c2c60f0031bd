// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest provides an [http.Server] based app which documents
// its registered endpoints as an OpenAPI spec.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/z5labs/rng/rest/mux"

	"github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// Option represents configurable attributes of [App].
type Option func(*App)

// Listener allows you to configure the [net.Listener] for
// the underlying [http.Server] to use for serving requests.
//
// If this option is not supplied, then [net.Listen] will be
// used to create a [net.Listener] for "tcp" and address ":80".
func Listener(ls net.Listener) Option {
	return func(a *App) {
		a.ls = ls
	}
}

// ListenOn sets the port which [net.Listen] is called with
// when no [Listener] is supplied.
func ListenOn(port uint) Option {
	return func(a *App) {
		a.addr = fmt.Sprintf(":%d", port)
	}
}

// Title sets the title of the API in its OpenAPI spec.
//
// In order for your OpenAPI spec to be fully compliant
// with other tooling, this option is required.
func Title(s string) Option {
	return func(a *App) {
		a.spec().Info.Title = s
	}
}

// Version sets the API version in its OpenAPI spec.
//
// In order for your OpenAPI spec to be fully compliant
// with other tooling, this option is required.
func Version(s string) Option {
	return func(a *App) {
		a.spec().Info.Version = s
	}
}

// ReadTimeout sets [http.Server.ReadTimeout].
func ReadTimeout(d time.Duration) Option {
	return func(a *App) {
		a.server.ReadTimeout = d
	}
}

// ReadHeaderTimeout sets [http.Server.ReadHeaderTimeout].
func ReadHeaderTimeout(d time.Duration) Option {
	return func(a *App) {
		a.server.ReadHeaderTimeout = d
	}
}

// WriteTimeout sets [http.Server.WriteTimeout].
func WriteTimeout(d time.Duration) Option {
	return func(a *App) {
		a.server.WriteTimeout = d
	}
}

// IdleTimeout sets [http.Server.IdleTimeout].
func IdleTimeout(d time.Duration) Option {
	return func(a *App) {
		a.server.IdleTimeout = d
	}
}

// NotFound sets the handler for requests which match no registered
// method and pattern.
func NotFound(h http.Handler) Option {
	return func(a *App) {
		a.muxOpts = append(a.muxOpts, mux.NotFoundHandler(h))
	}
}

// MethodNotAllowed sets the handler for requests which match a registered
// pattern but none of its methods.
func MethodNotAllowed(h http.Handler) Option {
	return func(a *App) {
		a.muxOpts = append(a.muxOpts, mux.MethodNotAllowedHandler(h))
	}
}

// Operation represents anything that can handle HTTP requests
// and provide OpenAPI documentation for itself.
type Operation interface {
	http.Handler

	OpenApi(openapi.OperationContext)
}

// Endpoint represents all information necessary for registering
// an [Operation] with a [App].
type Endpoint struct {
	Method    mux.Method
	Pattern   string
	Operation Operation
}

// Register registers the [Endpoint] with both
// the App wide OpenAPI spec and the App wide HTTP server.
func Register(e Endpoint) Option {
	return func(app *App) {
		app.endpoints = append(app.endpoints, e)
	}
}

// Handle registers a plain [http.Handler] which is served
// but not documented in the OpenAPI spec.
func Handle(method mux.Method, pattern string, h http.Handler) Option {
	return func(app *App) {
		app.handlers = append(app.handlers, handler{
			method:  method,
			pattern: pattern,
			h:       h,
		})
	}
}

type handler struct {
	method  mux.Method
	pattern string
	h       http.Handler
}

// App is a [rng.App] implementation to help simplify
// building RESTful applications.
type App struct {
	ls     net.Listener
	addr   string
	listen func(network, addr string) (net.Listener, error)

	reflector *openapi3.Reflector
	muxOpts   []mux.HttpOption
	mux       *mux.Http
	endpoints []Endpoint
	handlers  []handler
	server    *http.Server

	// set when an endpoint could not be documented
	err error

	serving atomic.Bool
}

// NewApp initializes a [App].
func NewApp(opts ...Option) *App {
	app := &App{
		addr:      ":80",
		listen:    net.Listen,
		reflector: &openapi3.Reflector{},
		server:    &http.Server{},
	}
	app.reflector.Spec = &openapi3.Spec{
		Openapi: "3.0.3",
	}
	for _, opt := range opts {
		opt(app)
	}

	app.mux = mux.NewHttp(app.muxOpts...)
	app.err = app.registerEndpoints()
	for _, h := range app.handlers {
		app.mux.Handle(h.method, h.pattern, otelhttp.WithRouteTag(h.pattern, h.h))
	}
	return app
}

func (app *App) spec() *openapi3.Spec {
	return app.reflector.SpecEns()
}

// Spec returns the OpenAPI spec documenting every registered [Endpoint].
func (app *App) Spec() *openapi3.Spec {
	return app.spec()
}

// ServeHTTP implements the [http.Handler] interface.
// It does not include the tracing middleware added by Run.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.mux.ServeHTTP(w, r)
}

// Healthy reports whether the App is currently serving requests.
// It implements the [health.Metric] interface.
func (app *App) Healthy(ctx context.Context) bool {
	return app.serving.Load()
}

// Run implements the [rng.App] interface.
func (app *App) Run(ctx context.Context) error {
	if app.err != nil {
		return app.err
	}

	ls, err := app.listener()
	if err != nil {
		return err
	}

	app.server.Handler = otelhttp.NewHandler(
		app.mux,
		"server",
		otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
	)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		app.serving.Store(true)
		return app.server.Serve(ls)
	})
	eg.Go(func() error {
		<-egctx.Done()
		app.serving.Store(false)
		return app.server.Shutdown(context.Background())
	})

	err = eg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) listener() (net.Listener, error) {
	if app.ls != nil {
		return app.ls, nil
	}
	return app.listen("tcp", app.addr)
}

func (app *App) registerEndpoints() error {
	for _, e := range app.endpoints {
		// Per the net/http.ServeMux docs, https://pkg.go.dev/net/http#ServeMux:
		//
		//      A path can include wildcard segments of the form {NAME} or {NAME...}.
		//
		// The '...' wildcard has no equivalent in OpenAPI so we must remove it
		// before registering the OpenAPI operation with the spec.
		trimmedPattern := strings.ReplaceAll(strings.TrimSuffix(e.Pattern, "{$}"), "...", "")

		oc, err := app.reflector.NewOperationContext(string(e.Method), trimmedPattern)
		if err != nil {
			return err
		}
		e.Operation.OpenApi(oc)

		err = app.reflector.AddOperation(oc)
		if err != nil {
			return err
		}

		app.mux.Handle(
			e.Method,
			e.Pattern,
			otelhttp.WithRouteTag(trimmedPattern, e.Operation),
		)
	}
	return nil
}

type openApiHandler struct {
	spec        *openapi3.Spec
	contentType string
	marshal     func(any) ([]byte, error)
}

func (h openApiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, err := h.marshal(h.spec)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", h.contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// OpenApiJsonHandler returns an [http.Handler] which will respond with the OpenAPI spec as JSON.
func OpenApiJsonHandler(spec *openapi3.Spec) http.Handler {
	return openApiHandler{
		spec:        spec,
		contentType: "application/json",
		marshal:     json.Marshal,
	}
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service wires the random value API and its admin listener.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"syscall"

	"github.com/z5labs/rng"
	"github.com/z5labs/rng/pkg/app"
	"github.com/z5labs/rng/pkg/health"
	"github.com/z5labs/rng/pkg/lifecycle"
	"github.com/z5labs/rng/pkg/noop"
	"github.com/z5labs/rng/pkg/otelconfig"
	"github.com/z5labs/rng/pkg/otelslog"
	"github.com/z5labs/rng/pkg/slogfield"
	"github.com/z5labs/rng/rest"
	"github.com/z5labs/rng/rest/endpoint"
	"github.com/z5labs/rng/rest/mux"
	"github.com/z5labs/rng/sampler"
)

// Version is reported in the OpenAPI spec.
var Version = "v0.1.0"

// New returns a [rest.App] serving the random value routes.
//
//	GET  /        the banner
//	GET  /random  the banner
//	POST /random  a sample from the requested distribution
//
// Every other method and path is answered with an empty 404.
// A nil log discards everything.
func New(log *slog.Logger, smp *sampler.Sampler, opts ...Option) *rest.App {
	if log == nil {
		log = noop.Logger()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	eh := endpoint.OnError(errorHandler{log: log})

	greeting := endpoint.HandlerFunc[endpoint.Empty, Greeting](greet)

	restOpts := []rest.Option{
		rest.Title("rng"),
		rest.Version(Version),
		rest.NotFound(http.HandlerFunc(notFound)),
		rest.MethodNotAllowed(http.HandlerFunc(notFound)),
		rest.Register(rest.Endpoint{
			Method:    mux.MethodGet,
			Pattern:   "/",
			Operation: endpoint.Get("/", greeting, eh),
		}),
		rest.Register(rest.Endpoint{
			Method:    mux.MethodGet,
			Pattern:   "/random",
			Operation: endpoint.Get("/random", greeting, eh),
		}),
		rest.Register(rest.Endpoint{
			Method:  mux.MethodPost,
			Pattern: "/random",
			Operation: endpoint.Post(
				"/random",
				&sampleHandler{log: log, sampler: smp},
				eh,
				endpoint.MaxBodySize(o.maxBodySize),
				endpoint.Accepts(sampleRequestDoc{}, "application/json"),
				endpoint.Returns(http.StatusUnprocessableEntity),
				endpoint.Returns(http.StatusInternalServerError),
			),
		}),
	}
	restOpts = append(restOpts, o.rest...)

	return rest.NewApp(restOpts...)
}

// Option configures the [rest.App] returned by [New].
type Option func(*options)

type options struct {
	maxBodySize int64
	rest        []rest.Option
}

// MaxBodySize limits the size of a POST /random body.
func MaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// RestOptions passes options through to [rest.NewApp].
func RestOptions(opts ...rest.Option) Option {
	return func(o *options) {
		o.rest = append(o.rest, opts...)
	}
}

// Init is a [rng.AppBuilderFunc] which builds the whole service from cfg.
func Init(ctx context.Context, cfg Config) (rng.App, error) {
	log := otelslog.Json(os.Stdout, cfg.Logging.Level)

	initer, err := otelInitializer(cfg.OTel)
	if err != nil {
		return nil, err
	}

	var smpOpts []sampler.Option
	if cfg.Sampler.Seed != 0 {
		smpOpts = append(smpOpts, sampler.Seed(cfg.Sampler.Seed))
	}
	smp, err := sampler.New(smpOpts...)
	if err != nil {
		return nil, err
	}

	api := New(
		log,
		smp,
		MaxBodySize(cfg.Http.MaxBodySize),
		RestOptions(
			rest.ListenOn(cfg.Http.Port),
			rest.ReadTimeout(cfg.Http.ReadTimeout),
			rest.ReadHeaderTimeout(cfg.Http.ReadHeaderTimeout),
			rest.WriteTimeout(cfg.Http.WriteTimeout),
			rest.IdleTimeout(cfg.Http.IdleTimeout),
		),
	)

	var a rng.App = api
	if cfg.Health.Port != 0 {
		a = app.Multi(api, newAdmin(cfg.Health.Port, api))
	}

	a = app.Recover(a)
	a = app.WithLifecycleHooks(a, lifecycle.ManageOTel(initer))
	a = app.WithSignalNotifications(a, os.Interrupt, syscall.SIGTERM)

	log.InfoContext(
		ctx,
		"initialized service",
		slogfield.Uint("http_port", cfg.Http.Port),
		slogfield.Uint("health_port", cfg.Health.Port),
		slogfield.Duration("read_timeout", cfg.Http.ReadTimeout),
		slogfield.Duration("read_header_timeout", cfg.Http.ReadHeaderTimeout),
		slogfield.Duration("write_timeout", cfg.Http.WriteTimeout),
		slogfield.Duration("idle_timeout", cfg.Http.IdleTimeout),
		slogfield.String("otel_exporter", cfg.OTel.Exporter),
	)
	return a, nil
}

// newAdmin serves the health probes and the OpenAPI spec of api.
func newAdmin(port uint, api *rest.App) *rest.App {
	var live health.Binary
	return rest.NewApp(
		rest.ListenOn(port),
		rest.Handle(mux.MethodGet, "/health/liveness", health.NewHandler(&live)),
		rest.Handle(mux.MethodGet, "/health/readiness", health.NewHandler(health.And(&live, api))),
		rest.Handle(mux.MethodGet, "/openapi.json", rest.OpenApiJsonHandler(api.Spec())),
	)
}

func otelInitializer(cfg OTelConfig) (otelconfig.Initializer, error) {
	switch cfg.Exporter {
	case "", "none":
		return otelconfig.Noop, nil
	case "stdout":
		return otelconfig.Local(otelconfig.ServiceName(cfg.ServiceName)), nil
	case "otlp":
		return otelconfig.OTLP(
			otelconfig.ServiceName(cfg.ServiceName),
			otelconfig.Target(cfg.OTLP.Target),
		), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

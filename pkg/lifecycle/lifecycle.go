// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides [app.Lifecycle] hooks shared by rng apps.
package lifecycle

import (
	"context"

	"github.com/z5labs/rng/pkg/app"
	"github.com/z5labs/rng/pkg/otelconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ManageOTel installs the tracer provider returned by initer as the global
// provider on PreRun and shuts it down on PostRun, flushing any buffered spans.
func ManageOTel(initer otelconfig.Initializer) app.Lifecycle {
	return app.Lifecycle{
		PreRun: app.LifecycleHookFunc(func(ctx context.Context) error {
			tp, err := initer.Init(ctx)
			if err != nil {
				return err
			}
			if tp != otel.GetTracerProvider() {
				otel.SetTracerProvider(tp)
			}
			// need to set this so traces can propagate
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
			return nil
		}),
		PostRun: app.LifecycleHookFunc(ShutdownOTel),
	}
}

// ShutdownOTel shuts down the global tracer provider if it supports it.
func ShutdownOTel(ctx context.Context) error {
	tp := otel.GetTracerProvider()
	stp, ok := tp.(interface {
		Shutdown(context.Context) error
	})
	if !ok {
		return nil
	}
	return stp.Shutdown(ctx)
}

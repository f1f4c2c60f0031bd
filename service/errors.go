// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/rng/distribution"
	"github.com/z5labs/rng/pkg/slogfield"
	"github.com/z5labs/rng/rest/endpoint"
)

// UnknownExporterError occurs when otel.exporter names no supported exporter.
type UnknownExporterError struct {
	Exporter string
}

// Error implements the [error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter %q, expected one of: none, stdout, otlp", e.Exporter)
}

type errorHandler struct {
	log *slog.Logger
}

// HandleError implements the [endpoint.ErrorHandler] interface.
//
// Invalid requests are answered with 422 and serialization failures
// with 500, both with the error text as a plain text body.
func (h errorHandler) HandleError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		decodeErr  distribution.DecodeError
		paramErr   distribution.InvalidParameterError
		marshalErr endpoint.MarshalResponseError
		methodErr  endpoint.InvalidMethodError
		readErr    endpoint.ReadRequestError
	)
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &paramErr):
		writeText(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &marshalErr):
		h.log.ErrorContext(ctx, "failed to serialize response", slogfield.Error(err))
		writeText(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &methodErr):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &readErr):
		writeText(w, readErr.StatusCode(), err.Error())
	default:
		h.log.ErrorContext(ctx, "unexpected error", slogfield.Error(err))
		writeText(w, http.StatusInternalServerError, err.Error())
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// notFound answers every unmatched method and path with an empty 404.
func notFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

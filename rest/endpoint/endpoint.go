// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint lifts a typed request/response handler into an [http.Handler].
package endpoint

import (
	"context"
	"encoding"
	"errors"
	"io"
	"net/http"

	"github.com/swaggest/openapi-go"
)

// Empty
type Empty struct{}

// Handler
type Handler[Req, Resp any] interface {
	Handle(context.Context, Req) (Resp, error)
}

// HandlerFunc
type HandlerFunc[Req, Resp any] func(context.Context, Req) (Resp, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// ContentTyper is implemented by request and response types to declare
// the media type of their binary form.
type ContentTyper interface {
	ContentType() string
}

// Validator is implemented by request types which can check
// themselves after being unmarshaled.
type Validator interface {
	Validate() error
}

// ErrorHandler
type ErrorHandler interface {
	HandleError(context.Context, http.ResponseWriter, error)
}

// ErrorHandlerFunc is a functional implementation of [ErrorHandler].
type ErrorHandlerFunc func(context.Context, http.ResponseWriter, error)

// HandleError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) HandleError(ctx context.Context, w http.ResponseWriter, err error) {
	f(ctx, w, err)
}

type options struct {
	defaultStatusCode int
	maxBodySize       int64
	errHandler        ErrorHandler
	openapi           []func(openapi.OperationContext)
}

// Option
type Option func(*options)

var DefaultStatusCode = http.StatusOK

// DefaultErrorStatusCode is written for errors which do not implement [StatusCoder]
// when no custom [ErrorHandler] is set.
var DefaultErrorStatusCode = http.StatusInternalServerError

// StatusCode
func StatusCode(statusCode int) Option {
	return func(o *options) {
		o.defaultStatusCode = statusCode
	}
}

// MaxBodySize limits how many bytes of the request body are read.
// A larger body results in a [ReadRequestError] and a 413 by default.
func MaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// OnError
func OnError(eh ErrorHandler) Option {
	return func(o *options) {
		o.errHandler = eh
	}
}

// Endpoint serves a single method and pattern. For each request it reads the
// whole body, unmarshals it into Req, validates it, calls the [Handler] and
// marshals the returned Resp. Any failure along the way is passed to the
// [ErrorHandler].
type Endpoint[Req, Resp any] struct {
	method  string
	pattern string

	statusCode  int
	maxBodySize int64
	handler     Handler[Req, Resp]

	errHandler ErrorHandler

	openapi []func(openapi.OperationContext)
}

// New initializes an Endpoint.
func New[Req, Resp any](method string, pattern string, handler Handler[Req, Resp], opts ...Option) *Endpoint[Req, Resp] {
	o := &options{
		defaultStatusCode: DefaultStatusCode,
		errHandler:        ErrorHandlerFunc(defaultErrorHandler),
	}
	for _, opt := range opts {
		opt(o)
	}

	var resp Resp
	if ct, ok := any(resp).(ContentTyper); ok {
		o.openapi = append(o.openapi, returnsWith(resp, ct.ContentType(), o.defaultStatusCode))
	} else {
		o.openapi = append(o.openapi, returns(o.defaultStatusCode))
	}

	return &Endpoint[Req, Resp]{
		method:      method,
		pattern:     pattern,
		statusCode:  o.defaultStatusCode,
		maxBodySize: o.maxBodySize,
		handler:     handler,
		errHandler:  o.errHandler,
		openapi:     o.openapi,
	}
}

// Get returns an Endpoint configured for handling HTTP GET requests.
func Get[Req, Resp any](pattern string, handler Handler[Req, Resp], opts ...Option) *Endpoint[Req, Resp] {
	return New(http.MethodGet, pattern, handler, opts...)
}

// Post returns an Endpoint configured for handling HTTP POST requests.
func Post[Req, Resp any](pattern string, handler Handler[Req, Resp], opts ...Option) *Endpoint[Req, Resp] {
	return New(http.MethodPost, pattern, handler, opts...)
}

func (e *Endpoint[Req, Resp]) Method() string {
	return e.method
}

func (e *Endpoint[Req, Resp]) Pattern() string {
	return e.pattern
}

// ServeHTTP implements the [http.Handler] interface.
func (e *Endpoint[Req, Resp]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != e.method {
		e.errHandler.HandleError(ctx, w, InvalidMethodError{Method: r.Method})
		return
	}

	var req Req
	err := e.unmarshal(w, r, &req)
	if err != nil {
		e.errHandler.HandleError(ctx, w, err)
		return
	}

	if v, ok := any(req).(Validator); ok {
		err = v.Validate()
		if err != nil {
			e.errHandler.HandleError(ctx, w, InvalidRequestError{Cause: err})
			return
		}
	}

	resp, err := e.handler.Handle(ctx, req)
	if err != nil {
		e.errHandler.HandleError(ctx, w, err)
		return
	}

	bm, ok := any(resp).(encoding.BinaryMarshaler)
	if !ok {
		w.WriteHeader(e.statusCode)
		return
	}

	b, err := bm.MarshalBinary()
	if err != nil {
		e.errHandler.HandleError(ctx, w, MarshalResponseError{Cause: err})
		return
	}

	if ct, ok := any(resp).(ContentTyper); ok {
		w.Header().Set("Content-Type", ct.ContentType())
	}
	w.WriteHeader(e.statusCode)

	// the status is already written so a failed write
	// can not be reported to the client
	_, _ = w.Write(b)
}

func (e *Endpoint[Req, Resp]) unmarshal(w http.ResponseWriter, r *http.Request, req *Req) error {
	bu, ok := any(req).(encoding.BinaryUnmarshaler)
	if !ok {
		return nil
	}

	body := r.Body
	if e.maxBodySize > 0 {
		body = http.MaxBytesReader(w, body, e.maxBodySize)
	}
	defer func() {
		_ = body.Close()
	}()

	b, err := io.ReadAll(body)
	if err != nil {
		return ReadRequestError{Cause: err}
	}

	err = bu.UnmarshalBinary(b)
	if err != nil {
		return UnmarshalRequestError{Cause: err}
	}
	return nil
}

// StatusCoder is implemented by errors which map to a specific HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

func defaultErrorHandler(ctx context.Context, w http.ResponseWriter, err error) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		w.WriteHeader(sc.StatusCode())
		return
	}
	w.WriteHeader(DefaultErrorStatusCode)
}

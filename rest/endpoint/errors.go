// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidMethodError represents when a request was sent to an endpoint
// for the incorrect method.
type InvalidMethodError struct {
	Method string
}

// Error implements the [error] interface.
func (e InvalidMethodError) Error() string {
	return fmt.Sprintf("received invalid method for endpoint: %s", e.Method)
}

// StatusCode implements the [StatusCoder] interface.
func (InvalidMethodError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

// ReadRequestError occurs when the request body could not be read in full.
type ReadRequestError struct {
	Cause error
}

// Error implements the [error] interface.
func (e ReadRequestError) Error() string {
	return fmt.Sprintf("failed to read request body: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadRequestError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the [StatusCoder] interface.
func (e ReadRequestError) StatusCode() int {
	var mbe *http.MaxBytesError
	if errors.As(e.Cause, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// UnmarshalRequestError occurs when the request body is not a valid encoding of the request type.
type UnmarshalRequestError struct {
	Cause error
}

// Error implements the [error] interface.
func (e UnmarshalRequestError) Error() string {
	return e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmarshalRequestError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the [StatusCoder] interface.
func (UnmarshalRequestError) StatusCode() int {
	return http.StatusBadRequest
}

// InvalidRequestError occurs when an unmarshaled request fails its own validation.
type InvalidRequestError struct {
	Cause error
}

// Error implements the [error] interface.
func (e InvalidRequestError) Error() string {
	return e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidRequestError) Unwrap() error {
	return e.Cause
}

// StatusCode implements the [StatusCoder] interface.
func (InvalidRequestError) StatusCode() int {
	return http.StatusBadRequest
}

// MarshalResponseError occurs when the handler response could not be serialized.
type MarshalResponseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e MarshalResponseError) Error() string {
	return fmt.Sprintf("failed to marshal response: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e MarshalResponseError) Unwrap() error {
	return e.Cause
}

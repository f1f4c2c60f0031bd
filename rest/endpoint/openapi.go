// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"github.com/swaggest/openapi-go"
)

// Accepts documents the request body of the endpoint. Since a request
// type may be a sum type, the schema is reflected from body instead of Req.
func Accepts(body any, contentType string) Option {
	return func(o *options) {
		o.openapi = append(o.openapi, func(oc openapi.OperationContext) {
			oc.AddReqStructure(body, openapi.WithContentType(contentType))
		})
	}
}

func returns(status int) func(oc openapi.OperationContext) {
	return func(oc openapi.OperationContext) {
		oc.AddRespStructure(
			nil,
			openapi.WithHTTPStatus(status),
		)
	}
}

// Returns documents an additional status code the endpoint may respond with.
func Returns(status int) Option {
	return func(o *options) {
		o.openapi = append(o.openapi, returns(status))
	}
}

func returnsWith(resp any, contentType string, status int) func(oc openapi.OperationContext) {
	return func(oc openapi.OperationContext) {
		oc.AddRespStructure(
			resp,
			openapi.WithContentType(contentType),
			openapi.WithHTTPStatus(status),
		)
	}
}

// ReturnsWith documents an additional status code along with its response body.
func ReturnsWith(resp any, contentType string, status int) Option {
	return func(o *options) {
		o.openapi = append(o.openapi, returnsWith(resp, contentType, status))
	}
}

// OpenApi documents the endpoint on the given operation.
func (e *Endpoint[Req, Resp]) OpenApi(oc openapi.OperationContext) {
	for _, f := range e.openapi {
		f(oc)
	}
}

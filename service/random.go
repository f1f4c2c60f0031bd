// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/z5labs/rng/distribution"
	"github.com/z5labs/rng/pkg/slogfield"
	"github.com/z5labs/rng/rest/endpoint"
	"github.com/z5labs/rng/sampler"
)

// Banner is the fixed body returned by the index routes.
const Banner = "Random Microservice"

// Greeting is the plain text response of the index routes.
type Greeting struct{}

// ContentType implements the [endpoint.ContentTyper] interface.
func (Greeting) ContentType() string {
	return "text/plain; charset=utf-8"
}

// MarshalBinary implements the [encoding.BinaryMarshaler] interface.
func (Greeting) MarshalBinary() ([]byte, error) {
	return []byte(Banner), nil
}

func greet(_ context.Context, _ endpoint.Empty) (Greeting, error) {
	return Greeting{}, nil
}

// SampleRequest is the body of POST /random.
type SampleRequest struct {
	distribution.Request
}

// ContentType implements the [endpoint.ContentTyper] interface.
func (SampleRequest) ContentType() string {
	return "application/json"
}

// UnmarshalBinary implements the [encoding.BinaryUnmarshaler] interface.
func (r *SampleRequest) UnmarshalBinary(b []byte) error {
	req, err := distribution.Decode(b)
	if err != nil {
		return err
	}
	r.Request = req
	return nil
}

// Validate implements the [endpoint.Validator] interface.
func (r SampleRequest) Validate() error {
	return distribution.Validate(r.Request)
}

// SampleResponse is the body of a successful POST /random.
type SampleResponse struct {
	Value float64 `json:"value"`
}

// ContentType implements the [endpoint.ContentTyper] interface.
func (SampleResponse) ContentType() string {
	return "application/json"
}

// MarshalBinary implements the [encoding.BinaryMarshaler] interface.
func (resp SampleResponse) MarshalBinary() ([]byte, error) {
	return json.Marshal(resp)
}

type sampleHandler struct {
	log     *slog.Logger
	sampler *sampler.Sampler
}

func (h *sampleHandler) Handle(ctx context.Context, req SampleRequest) (SampleResponse, error) {
	v, err := h.sampler.Sample(req.Request)
	if err != nil {
		return SampleResponse{}, err
	}

	h.log.DebugContext(
		ctx,
		"sampled value",
		slogfield.String("distribution", string(req.Kind())),
		slogfield.Float64("value", v),
	)
	return SampleResponse{Value: v}, nil
}

// sampleRequestDoc documents the wire form of [SampleRequest]. The
// parameters depend on the distribution.
type sampleRequestDoc struct {
	Distribution string        `json:"distribution" required:"true" enum:"uniform,normal,bernoulli"`
	Parameters   parametersDoc `json:"parameters" required:"true"`
}

type parametersDoc struct {
	Start  *int32   `json:"start,omitempty" description:"uniform: inclusive lower bound"`
	End    *int32   `json:"end,omitempty" description:"uniform: exclusive upper bound, greater than start"`
	Mean   *float64 `json:"mean,omitempty" description:"normal: mean"`
	StdDev *float64 `json:"std_dev,omitempty" minimum:"0" description:"normal: standard deviation"`
	P      *float64 `json:"p,omitempty" minimum:"0" maximum:"1" description:"bernoulli: probability of 1"`
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package distribution

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNilRequest is returned when a nil [Request] is validated or encoded.
var ErrNilRequest = errors.New("distribution: nil request")

// DecodeError occurs when a request body can not be decoded into a [Request].
// Distribution is empty if the failure happened before the discriminator was read.
type DecodeError struct {
	Distribution Kind
	Cause        error
}

// Error implements the [builtin.error] interface.
func (e DecodeError) Error() string {
	if e.Distribution == "" {
		return fmt.Sprintf("failed to decode distribution request: %s", e.Cause)
	}
	return fmt.Sprintf("failed to decode %s parameters: %s", e.Distribution, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// UnknownDistributionError occurs when the discriminator names no known distribution.
type UnknownDistributionError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e UnknownDistributionError) Error() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("unknown distribution %q, expected one of: %s", e.Name, strings.Join(names, ", "))
}

// MissingFieldError occurs when a required field is absent or null.
type MissingFieldError struct {
	Field string
}

// Error implements the [builtin.error] interface.
func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

type envelope struct {
	Distribution *string        `json:"distribution"`
	Parameters   json.RawMessage `json:"parameters"`
}

type uniformParams struct {
	Start *int32 `json:"start"`
	End   *int32 `json:"end"`
}

type normalParams struct {
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"std_dev"`
}

type bernoulliParams struct {
	P *float64 `json:"p"`
}

// Decode parses b as a distribution request. The discriminator is read
// first and then the parameters are decoded into the matching variant.
// Unknown fields are ignored. Decode does not check the parameter domains,
// see [Validate] for that.
//
// Every failure is returned as a [DecodeError].
func Decode(b []byte) (Request, error) {
	var env envelope
	err := json.Unmarshal(b, &env)
	if err != nil {
		return nil, DecodeError{Cause: err}
	}
	if env.Distribution == nil {
		return nil, DecodeError{Cause: MissingFieldError{Field: "distribution"}}
	}

	kind := Kind(*env.Distribution)
	switch kind {
	case KindUniform, KindNormal, KindBernoulli:
	default:
		return nil, DecodeError{Cause: UnknownDistributionError{Name: *env.Distribution}}
	}

	if len(env.Parameters) == 0 || string(env.Parameters) == "null" {
		return nil, DecodeError{Cause: MissingFieldError{Field: "parameters"}}
	}

	req, err := decodeParameters(kind, env.Parameters)
	if err != nil {
		return nil, DecodeError{Distribution: kind, Cause: err}
	}
	return req, nil
}

func decodeParameters(kind Kind, raw json.RawMessage) (Request, error) {
	switch kind {
	case KindUniform:
		var p uniformParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Start == nil {
			return nil, MissingFieldError{Field: "start"}
		}
		if p.End == nil {
			return nil, MissingFieldError{Field: "end"}
		}
		return Uniform{Start: *p.Start, End: *p.End}, nil
	case KindNormal:
		var p normalParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Mean == nil {
			return nil, MissingFieldError{Field: "mean"}
		}
		if p.StdDev == nil {
			return nil, MissingFieldError{Field: "std_dev"}
		}
		return Normal{Mean: *p.Mean, StdDev: *p.StdDev}, nil
	case KindBernoulli:
		var p bernoulliParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.P == nil {
			return nil, MissingFieldError{Field: "p"}
		}
		return Bernoulli{P: *p.P}, nil
	}
	return nil, UnknownDistributionError{Name: string(kind)}
}

type wireRequest struct {
	Distribution Kind `json:"distribution"`
	Parameters   any  `json:"parameters"`
}

// Encode returns the wire form of req. It is the inverse of [Decode].
func Encode(req Request) ([]byte, error) {
	var params any
	switch r := req.(type) {
	case nil:
		return nil, ErrNilRequest
	case Uniform:
		params = uniformParams{Start: &r.Start, End: &r.End}
	case Normal:
		params = normalParams{Mean: &r.Mean, StdDev: &r.StdDev}
	case Bernoulli:
		params = bernoulliParams{P: &r.P}
	default:
		return nil, fmt.Errorf("distribution: unsupported request type %T", req)
	}
	return json.Marshal(wireRequest{
		Distribution: req.Kind(),
		Parameters:   params,
	})
}

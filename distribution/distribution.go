// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package distribution models the requests a client can make for a random value.
//
// A [Request] is a sum type whose variants are [Uniform], [Normal] and [Bernoulli].
// On the wire a request is a JSON object with a "distribution" discriminator and
// a "parameters" object holding the fields of the selected variant:
//
//	{"distribution": "uniform",   "parameters": {"start": 0, "end": 10}}
//	{"distribution": "normal",    "parameters": {"mean": 0.0, "std_dev": 1.0}}
//	{"distribution": "bernoulli", "parameters": {"p": 0.5}}
package distribution

import (
	"fmt"
	"math"
)

// Kind is the discriminator value naming a distribution.
type Kind string

const (
	KindUniform   Kind = "uniform"
	KindNormal    Kind = "normal"
	KindBernoulli Kind = "bernoulli"
)

// Kinds lists every supported distribution in the order they are documented.
var Kinds = []Kind{KindUniform, KindNormal, KindBernoulli}

// Request is a decoded distribution request. The set of implementations
// is closed to this package.
type Request interface {
	// Kind returns the discriminator of the request.
	Kind() Kind

	// Validate reports whether the parameters describe a well-defined
	// distribution. It returns an [InvalidParameterError] if not.
	Validate() error

	isRequest()
}

// Uniform describes the half-open integer range [Start, End). The bounds
// are 32-bit so every value in the range is exact as a float64.
type Uniform struct {
	Start int32
	End   int32
}

// Kind implements the [Request] interface.
func (Uniform) Kind() Kind { return KindUniform }

// Validate implements the [Request] interface.
func (u Uniform) Validate() error {
	if u.End > u.Start {
		return nil
	}
	return InvalidParameterError{
		Distribution: KindUniform,
		Parameter:    "end",
		Reason:       fmt.Sprintf("must be greater than start (%d), got %d", u.Start, u.End),
	}
}

func (Uniform) isRequest() {}

// Normal describes a gaussian distribution.
type Normal struct {
	Mean   float64
	StdDev float64
}

// Kind implements the [Request] interface.
func (Normal) Kind() Kind { return KindNormal }

// Validate implements the [Request] interface.
//
// A standard deviation of zero is allowed and always yields the mean.
func (n Normal) Validate() error {
	if !isFinite(n.Mean) {
		return InvalidParameterError{
			Distribution: KindNormal,
			Parameter:    "mean",
			Reason:       fmt.Sprintf("must be finite, got %v", n.Mean),
		}
	}
	if !isFinite(n.StdDev) || n.StdDev < 0 {
		return InvalidParameterError{
			Distribution: KindNormal,
			Parameter:    "std_dev",
			Reason:       fmt.Sprintf("must be finite and non-negative, got %v", n.StdDev),
		}
	}
	return nil
}

func (Normal) isRequest() {}

// Bernoulli describes a single trial with success probability P.
type Bernoulli struct {
	P float64
}

// Kind implements the [Request] interface.
func (Bernoulli) Kind() Kind { return KindBernoulli }

// Validate implements the [Request] interface.
func (b Bernoulli) Validate() error {
	// NaN fails both comparisons
	if b.P >= 0 && b.P <= 1 {
		return nil
	}
	return InvalidParameterError{
		Distribution: KindBernoulli,
		Parameter:    "p",
		Reason:       fmt.Sprintf("must be within [0, 1], got %v", b.P),
	}
}

func (Bernoulli) isRequest() {}

// Validate is a convenience for req.Validate which also rejects a nil request.
func Validate(req Request) error {
	if req == nil {
		return ErrNilRequest
	}
	return req.Validate()
}

// InvalidParameterError occurs when a request decodes fine but its
// parameters fall outside the domain of the distribution.
type InvalidParameterError struct {
	Distribution Kind
	Parameter    string
	Reason       string
}

// Error implements the [builtin.error] interface.
func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s parameter %q: %s", e.Distribution, e.Parameter, e.Reason)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sampler draws random values from the distributions described
// by a [distribution.Request].
package sampler

import (
	"fmt"

	"github.com/z5labs/rng/distribution"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Option configures a [Sampler].
type Option func(*options)

type options struct {
	src  rand.Source
	seed *uint64
}

// Source sets the source of randomness. The source is guarded by a mutex
// so it does not need to be safe for concurrent use itself.
func Source(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// Seed seeds the default source with the given value instead of
// one read from crypto/rand. Two samplers with the same seed produce
// the same sequence of samples for the same sequence of requests.
func Seed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// Sampler produces one sample per request. It is safe for concurrent use.
type Sampler struct {
	src rand.Source
}

// New initializes a [Sampler]. By default its source is a PCG generator
// seeded from crypto/rand.
func New(opts ...Option) (*Sampler, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	src := o.src
	if src == nil {
		seed, err := seedOf(o)
		if err != nil {
			return nil, err
		}
		src = rand.NewSource(seed)
	}

	s := &Sampler{
		src: newLockedSource(src),
	}
	return s, nil
}

func seedOf(o *options) (uint64, error) {
	if o.seed != nil {
		return *o.seed, nil
	}
	return NewSeed()
}

// Sample draws a single value from the distribution described by req.
// Bernoulli trials are reported as 0 or 1. The request is validated
// first so a parameter outside its domain yields an error instead
// of a meaningless value.
func (s *Sampler) Sample(req distribution.Request) (float64, error) {
	err := distribution.Validate(req)
	if err != nil {
		return 0, err
	}

	switch r := req.(type) {
	case distribution.Uniform:
		return s.uniform(r), nil
	case distribution.Normal:
		n := distuv.Normal{
			Mu:    r.Mean,
			Sigma: r.StdDev,
			Src:   s.src,
		}
		return n.Rand(), nil
	case distribution.Bernoulli:
		b := distuv.Bernoulli{
			P:   r.P,
			Src: s.src,
		}
		return b.Rand(), nil
	default:
		return 0, fmt.Errorf("sampler: unsupported distribution request %T", req)
	}
}

func (s *Sampler) uniform(u distribution.Uniform) float64 {
	width := uint64(int64(u.End) - int64(u.Start))
	n := rand.New(s.src).Uint64n(width)
	return float64(int64(u.Start) + int64(n))
}

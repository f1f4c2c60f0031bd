// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/z5labs/rng/client"
	"github.com/z5labs/rng/distribution"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sampleFlags struct {
	addr    string
	timeout time.Duration
	verbose bool
	breaker bool

	distribution string
	start        int32
	end          int32
	mean         float64
	stdDev       float64
	p            float64
}

func newSampleCmd() *cobra.Command {
	var f sampleFlags

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Request a single random value from a running service",
		Long: "Request a single random value from a running service.\n" +
			"Without --distribution the service banner is printed instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zap.NewNop()
			if f.verbose {
				var err error
				log, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer func() {
					_ = log.Sync()
				}()
			}

			opts := []client.Option{
				client.Name("rng"),
				client.Timeout(f.timeout),
				client.Logger(log),
				client.Retry(),
			}
			if f.breaker {
				opts = append(opts, client.CircuitBreaker())
			}

			c, err := client.New(f.addr, opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if f.distribution == "" {
				msg, err := c.Greeting(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err
			}

			req, err := f.request()
			if err != nil {
				return err
			}
			v, err := c.Sample(ctx, req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.addr, "addr", "http://localhost:8080", "base url of the service")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Second, "overall request timeout")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log requests to stderr")
	flags.BoolVar(&f.breaker, "circuit-breaker", false, "stop calling the service after repeated 5xx responses")
	flags.StringVarP(&f.distribution, "distribution", "d", "", "one of: uniform, normal, bernoulli")
	flags.Int32Var(&f.start, "start", 0, "uniform: inclusive lower bound")
	flags.Int32Var(&f.end, "end", 0, "uniform: exclusive upper bound")
	flags.Float64Var(&f.mean, "mean", 0, "normal: mean")
	flags.Float64Var(&f.stdDev, "std-dev", 1, "normal: standard deviation")
	flags.Float64Var(&f.p, "p", 0.5, "bernoulli: probability of 1")
	return cmd
}

func (f sampleFlags) request() (distribution.Request, error) {
	switch distribution.Kind(f.distribution) {
	case distribution.KindUniform:
		return distribution.Uniform{Start: f.start, End: f.end}, nil
	case distribution.KindNormal:
		return distribution.Normal{Mean: f.mean, StdDev: f.stdDev}, nil
	case distribution.KindBernoulli:
		return distribution.Bernoulli{P: f.p}, nil
	default:
		return nil, distribution.UnknownDistributionError{Name: f.distribution}
	}
}

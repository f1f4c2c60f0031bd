// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides helpers for common rng.App implementation patterns.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/rng"
	"github.com/z5labs/rng/internal/try"

	"golang.org/x/sync/errgroup"
)

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// PanicError is returned by [Recover] when the recovered value does not implement [error].
type PanicError = try.PanicError

// Recover will wrap the give [rng.App] with panic recovery.
// If the recovered panic value implements [error] then it will
// be directly returned. If it does not implement [error] then a
// [PanicError] will be returned instead.
func Recover(app rng.App) rng.App {
	return runFunc(func(ctx context.Context) (err error) {
		defer errRecover(&err)

		return app.Run(ctx)
	})
}

func errRecover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	rerr, ok := r.(error)
	if ok {
		*err = rerr
		return
	}
	*err = PanicError{Value: r}
}

// WithSignalNotifications wraps a given [rng.App] in an implementation
// that cancels the [context.Context] that's passed to app.Run if an [os.Signal]
// is received by the running process.
func WithSignalNotifications(app rng.App, signals ...os.Signal) rng.App {
	return runFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// LifecycleHook represents functionality that needs to be performed
// at a specific "time" relative to the execution of [rng.App.Run].
type LifecycleHook interface {
	Run(context.Context) error
}

// LifecycleHookFunc is a convenient helper type for implementing a [LifecycleHook]
// from just a regular func.
type LifecycleHookFunc func(context.Context) error

// Run implements the [LifecycleHook] interface.
func (f LifecycleHookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Lifecycle
type Lifecycle struct {
	// PreRun is executed before the underlying [rng.App]. If it fails,
	// the app is not run but PostRun still is.
	PreRun LifecycleHook

	// PostRun is always executed regardless if the underlying [rng.App]
	// returns an error or panics.
	PostRun LifecycleHook
}

// WithLifecycleHooks wraps a given [rng.App] in an implementation
// that runs [LifecycleHook]s around the execution of app.Run.
func WithLifecycleHooks(app rng.App, lifecycle Lifecycle) rng.App {
	return runFunc(func(ctx context.Context) (err error) {
		defer runPostRunHook(ctx, lifecycle.PostRun, &err)

		if lifecycle.PreRun != nil {
			err = lifecycle.PreRun.Run(ctx)
			if err != nil {
				return err
			}
		}
		return app.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook LifecycleHook, err *error) {
	if hook == nil {
		return
	}

	// the run context may already be cancelled by a signal
	hookErr := hook.Run(context.WithoutCancel(ctx))

	// errors.Join will not return an error if both
	// *err and hookErr are nil.
	*err = errors.Join(*err, hookErr)
}

// Multi runs every [rng.App] concurrently. When one returns, successfully
// or not, the others are cancelled. The first error is returned.
func Multi(apps ...rng.App) rng.App {
	return runFunc(func(ctx context.Context) error {
		eg, egctx := errgroup.WithContext(ctx)
		cctx, cancel := context.WithCancel(egctx)
		defer cancel()

		for _, a := range apps {
			a := a
			eg.Go(func() error {
				defer cancel()
				return a.Run(cctx)
			})
		}
		return eg.Wait()
	})
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rng runs a typed application from layered config sources.
//
// [Run] reads and merges the given [config.Source]s, decodes them into the
// config type of an [AppBuilder], builds the [App] and runs it. Each stage
// reports failures with its own error type so callers can tell a bad config
// file apart from a server which failed to listen:
//
//	err := rng.Run(ctx, rng.AppBuilderFunc[service.Config](service.Init), srcs...)
//
// The random value service itself lives in package service. The request
// model and the samplers live in packages distribution and sampler.
package rng

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the rng command.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the rng command with the given arguments.
func Execute(ctx context.Context, args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rng",
		Short:        "Random value microservice",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newSampleCmd(),
	)
	return cmd
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"os"

	"github.com/z5labs/rng/internal/cli"
)

func main() {
	err := cli.Execute(context.Background(), os.Args[1:]...)
	if err != nil {
		os.Exit(1)
	}
}

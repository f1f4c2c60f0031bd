// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/z5labs/rng"
	"github.com/z5labs/rng/config"
	"github.com/z5labs/rng/config/configtmpl"
	"github.com/z5labs/rng/config/key"
	"github.com/z5labs/rng/service"

	"github.com/spf13/cobra"
)

//go:embed config.yaml
var defaultConfig []byte

// InvalidOverrideError occurs when a --set value is not of the form key=value.
type InvalidOverrideError struct {
	Override string
}

// Error implements the [error] interface.
func (e InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid config override %q, expected key=value", e.Override)
}

func newServeCmd() *cobra.Command {
	var (
		cfgPath   string
		overrides []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the random value API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := configSources(cfgPath, overrides)
			if err != nil {
				return err
			}

			return rng.Run(
				cmd.Context(),
				rng.AppBuilderFunc[service.Config](service.Init),
				srcs...,
			)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "yaml or json config file merged over the defaults")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a single config value, e.g. --set http.port=9090")
	return cmd
}

// configSources returns the embedded defaults, then the config file if
// any, then every override. Later sources take precedence.
func configSources(cfgPath string, overrides []string) ([]config.Source, error) {
	srcs := []config.Source{
		config.FromYaml(
			config.RenderTextTemplate(
				bytes.NewReader(defaultConfig),
				config.TemplateFuncs(configtmpl.Funcs()),
			),
		),
	}

	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return nil, err
		}
		dir, name := filepath.Split(abs)

		src, err := config.FromFile(
			os.DirFS(dir),
			name,
			config.TemplateFuncs(configtmpl.Funcs()),
		)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}

	for _, o := range overrides {
		k, v, ok := strings.Cut(o, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, InvalidOverrideError{Override: o}
		}
		srcs = append(srcs, config.KeyValue{
			Key:   key.Parse(strings.TrimSpace(k)),
			Value: v,
		})
	}
	return srcs, nil
}

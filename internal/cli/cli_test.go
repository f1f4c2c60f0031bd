// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/rng/config"
	"github.com/z5labs/rng/distribution"
	"github.com/z5labs/rng/pkg/noop"
	"github.com/z5labs/rng/sampler"
	"github.com/z5labs/rng/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, srcs []config.Source) service.Config {
	t.Helper()

	m, err := config.Read(srcs...)
	require.NoError(t, err)

	var cfg service.Config
	err = m.Unmarshal(&cfg)
	require.NoError(t, err)
	return cfg
}

func TestConfigSources(t *testing.T) {
	t.Run("will decode the embedded defaults", func(t *testing.T) {
		srcs, err := configSources("", nil)
		if !assert.Nil(t, err) {
			return
		}

		cfg := readConfig(t, srcs)
		if !assert.Equal(t, slog.LevelInfo, cfg.Logging.Level) {
			return
		}
		if !assert.Equal(t, uint(8080), cfg.Http.Port) {
			return
		}
		if !assert.Equal(t, 5*time.Second, cfg.Http.ReadTimeout) {
			return
		}
		if !assert.Equal(t, int64(1048576), cfg.Http.MaxBodySize) {
			return
		}
		if !assert.Equal(t, uint(8081), cfg.Health.Port) {
			return
		}
		if !assert.Equal(t, "none", cfg.OTel.Exporter) {
			return
		}
		if !assert.Equal(t, "rng", cfg.OTel.ServiceName) {
			return
		}
		if !assert.Equal(t, uint64(0), cfg.Sampler.Seed) {
			return
		}
	})

	t.Run("will read defaults from the environment", func(t *testing.T) {
		t.Setenv("RNG_HTTP_PORT", "9000")
		t.Setenv("RNG_LOG_LEVEL", "DEBUG")

		srcs, err := configSources("", nil)
		if !assert.Nil(t, err) {
			return
		}

		cfg := readConfig(t, srcs)
		if !assert.Equal(t, uint(9000), cfg.Http.Port) {
			return
		}
		if !assert.Equal(t, slog.LevelDebug, cfg.Logging.Level) {
			return
		}
	})

	t.Run("will merge a config file over the defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rng.json")
		err := os.WriteFile(path, []byte(`{"http":{"port":7070},"sampler":{"seed":11}}`), 0o600)
		require.NoError(t, err)

		srcs, err := configSources(path, nil)
		if !assert.Nil(t, err) {
			return
		}

		cfg := readConfig(t, srcs)
		if !assert.Equal(t, uint(7070), cfg.Http.Port) {
			return
		}
		if !assert.Equal(t, uint64(11), cfg.Sampler.Seed) {
			return
		}
		if !assert.Equal(t, uint(8081), cfg.Health.Port) {
			return
		}
	})

	t.Run("will apply overrides last", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rng.yaml")
		err := os.WriteFile(path, []byte("http:\n  port: 7070\n"), 0o600)
		require.NoError(t, err)

		srcs, err := configSources(path, []string{"http.port=6060", "otel.exporter=stdout", "http.idleTimeout=1m"})
		if !assert.Nil(t, err) {
			return
		}

		cfg := readConfig(t, srcs)
		if !assert.Equal(t, uint(6060), cfg.Http.Port) {
			return
		}
		if !assert.Equal(t, "stdout", cfg.OTel.Exporter) {
			return
		}
		if !assert.Equal(t, time.Minute, cfg.Http.IdleTimeout) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if an override has no value", func(t *testing.T) {
			_, err := configSources("", []string{"http.port"})

			var oerr InvalidOverrideError
			if !assert.ErrorAs(t, err, &oerr) {
				return
			}
			if !assert.Equal(t, "http.port", oerr.Override) {
				return
			}
		})

		t.Run("if the config file is not yaml or json", func(t *testing.T) {
			_, err := configSources("rng.toml", nil)

			var uerr config.UnsupportedFileError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
		})
	})
}

func TestSampleFlags_Request(t *testing.T) {
	testCases := []struct {
		Name     string
		Flags    sampleFlags
		Expected distribution.Request
	}{
		{
			Name:     "uniform",
			Flags:    sampleFlags{distribution: "uniform", start: 1, end: 6},
			Expected: distribution.Uniform{Start: 1, End: 6},
		},
		{
			Name:     "normal",
			Flags:    sampleFlags{distribution: "normal", mean: 2, stdDev: 0.5},
			Expected: distribution.Normal{Mean: 2, StdDev: 0.5},
		},
		{
			Name:     "bernoulli",
			Flags:    sampleFlags{distribution: "bernoulli", p: 0.1},
			Expected: distribution.Bernoulli{P: 0.1},
		},
	}

	for _, testCase := range testCases {
		t.Run("will build a "+testCase.Name+" request", func(t *testing.T) {
			req, err := testCase.Flags.request()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, testCase.Expected, req) {
				return
			}
		})
	}

	t.Run("will return an error if the distribution is unknown", func(t *testing.T) {
		_, err := sampleFlags{distribution: "poisson"}.request()

		var uerr distribution.UnknownDistributionError
		if !assert.ErrorAs(t, err, &uerr) {
			return
		}
	})
}

func TestSampleCmd(t *testing.T) {
	smp, err := sampler.New(sampler.Seed(5))
	require.NoError(t, err)

	s := httptest.NewServer(service.New(noop.Logger(), smp))
	defer s.Close()

	t.Run("will print the banner without a distribution", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"sample", "--addr", s.URL})

		err := cmd.ExecuteContext(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, service.Banner, strings.TrimSpace(out.String())) {
			return
		}
	})

	t.Run("will print a sampled value", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"sample", "--addr", s.URL, "-d", "uniform", "--start", "4", "--end", "5"})

		err := cmd.ExecuteContext(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, float64(4), v) {
			return
		}
	})

	t.Run("will print a sampled value through the circuit breaker", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"sample", "--addr", s.URL, "--circuit-breaker", "-d", "bernoulli", "--p", "1"})

		err := cmd.ExecuteContext(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "1", strings.TrimSpace(out.String())) {
			return
		}
	})

	t.Run("will return an error if the service rejects the request", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"sample", "--addr", s.URL, "-d", "bernoulli", "--p", "3"})

		err := cmd.ExecuteContext(context.Background())
		if !assert.Error(t, err) {
			return
		}
	})
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/rng/pkg/noop"
	"github.com/z5labs/rng/rest/endpoint"
	"github.com/z5labs/rng/sampler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, opts ...Option) http.Handler {
	t.Helper()

	smp, err := sampler.New(sampler.Seed(42))
	require.NoError(t, err)

	log := noop.Logger()
	return New(log, smp, opts...)
}

func do(h http.Handler, method, path, body string) *http.Response {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func sample(t *testing.T, h http.Handler, body string) float64 {
	t.Helper()

	resp := do(h, http.MethodPost, "/random", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sr SampleResponse
	err := json.NewDecoder(resp.Body).Decode(&sr)
	require.NoError(t, err)
	return sr.Value
}

func TestGreeting(t *testing.T) {
	testCases := []struct {
		Name string
		Path string
	}{
		{
			Name: "root",
			Path: "/",
		},
		{
			Name: "random",
			Path: "/random",
		},
	}

	for _, testCase := range testCases {
		t.Run("will return the banner from "+testCase.Name, func(t *testing.T) {
			h := newTestApi(t)

			resp := do(h, http.MethodGet, testCase.Path, "")
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain")) {
				return
			}
			if !assert.Equal(t, "Random Microservice", readBody(t, resp)) {
				return
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	testCases := []struct {
		Method string
		Path   string
	}{
		{Method: http.MethodPut, Path: "/"},
		{Method: http.MethodPost, Path: "/"},
		{Method: http.MethodDelete, Path: "/"},
		{Method: http.MethodHead, Path: "/"},
		{Method: http.MethodPut, Path: "/random"},
		{Method: http.MethodDelete, Path: "/random"},
		{Method: http.MethodPatch, Path: "/random"},
		{Method: http.MethodHead, Path: "/random"},
		{Method: http.MethodOptions, Path: "/random"},
		{Method: http.MethodGet, Path: "/random/"},
		{Method: http.MethodPost, Path: "/random/"},
		{Method: http.MethodGet, Path: "//random"},
		{Method: http.MethodGet, Path: "/random/normal"},
		{Method: http.MethodGet, Path: "/health"},
		{Method: http.MethodGet, Path: "/RANDOM"},
	}

	for _, testCase := range testCases {
		t.Run("will return an empty 404 for "+testCase.Method+" "+testCase.Path, func(t *testing.T) {
			h := newTestApi(t)

			resp := do(h, testCase.Method, testCase.Path, `{"distribution":"bernoulli","parameters":{"p":0.5}}`)
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}
			if !assert.Empty(t, readBody(t, resp)) {
				return
			}
		})
	}
}

func TestSample(t *testing.T) {
	t.Run("will respond with only a value field", func(t *testing.T) {
		h := newTestApi(t)

		resp := do(h, http.MethodPost, "/random", `{"distribution":"uniform","parameters":{"start":0,"end":10}}`)
		if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
			return
		}
		if !assert.Equal(t, "application/json", resp.Header.Get("Content-Type")) {
			return
		}

		var m map[string]any
		err := json.NewDecoder(resp.Body).Decode(&m)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Len(t, m, 1) {
			return
		}
		if !assert.Contains(t, m, "value") {
			return
		}
		if !assert.IsType(t, float64(0), m["value"]) {
			return
		}
	})

	t.Run("will return integers within [start, end)", func(t *testing.T) {
		h := newTestApi(t)

		seen := make(map[float64]bool)
		for i := 0; i < 500; i++ {
			v := sample(t, h, `{"distribution":"uniform","parameters":{"start":-3,"end":3}}`)
			if !assert.Equal(t, math.Trunc(v), v) {
				return
			}
			if !assert.GreaterOrEqual(t, v, float64(-3)) {
				return
			}
			if !assert.Less(t, v, float64(3)) {
				return
			}
			seen[v] = true
		}
		if !assert.Len(t, seen, 6) {
			return
		}
	})

	t.Run("will always return start if the range holds one value", func(t *testing.T) {
		h := newTestApi(t)

		for i := 0; i < 20; i++ {
			v := sample(t, h, `{"distribution":"uniform","parameters":{"start":7,"end":8}}`)
			if !assert.Equal(t, float64(7), v) {
				return
			}
		}
	})

	t.Run("will return only 0 or 1 for bernoulli", func(t *testing.T) {
		h := newTestApi(t)

		n := 2000
		ones := 0
		for i := 0; i < n; i++ {
			v := sample(t, h, `{"distribution":"bernoulli","parameters":{"p":0.3}}`)
			if !assert.Contains(t, []float64{0, 1}, v) {
				return
			}
			if v == 1 {
				ones++
			}
		}
		if !assert.InDelta(t, 0.3, float64(ones)/float64(n), 0.05) {
			return
		}
	})

	t.Run("will return the bernoulli extremes exactly", func(t *testing.T) {
		h := newTestApi(t)

		for i := 0; i < 50; i++ {
			if !assert.Equal(t, float64(0), sample(t, h, `{"distribution":"bernoulli","parameters":{"p":0}}`)) {
				return
			}
			if !assert.Equal(t, float64(1), sample(t, h, `{"distribution":"bernoulli","parameters":{"p":1}}`)) {
				return
			}
		}
	})

	t.Run("will approximate the normal mean and standard deviation", func(t *testing.T) {
		h := newTestApi(t)

		n := 2000
		vs := make([]float64, n)
		var sum float64
		for i := range vs {
			vs[i] = sample(t, h, `{"distribution":"normal","parameters":{"mean":10,"std_dev":2}}`)
			sum += vs[i]
		}
		mean := sum / float64(n)

		var sq float64
		for _, v := range vs {
			sq += (v - mean) * (v - mean)
		}
		stdDev := math.Sqrt(sq / float64(n-1))

		if !assert.InDelta(t, 10, mean, 0.3) {
			return
		}
		if !assert.InDelta(t, 2, stdDev, 0.3) {
			return
		}
	})

	t.Run("will return the mean if the standard deviation is 0", func(t *testing.T) {
		h := newTestApi(t)

		v := sample(t, h, `{"distribution":"normal","parameters":{"mean":-1.5,"std_dev":0}}`)
		if !assert.Equal(t, -1.5, v) {
			return
		}
	})
}

func TestSample_Unprocessable(t *testing.T) {
	testCases := []struct {
		Name string
		Body string
	}{
		{
			Name: "the body is empty",
			Body: ``,
		},
		{
			Name: "the body is not json",
			Body: `distribution=uniform`,
		},
		{
			Name: "the distribution is unknown",
			Body: `{"distribution":"poisson","parameters":{"lambda":1}}`,
		},
		{
			Name: "the distribution is missing",
			Body: `{"parameters":{"p":0.5}}`,
		},
		{
			Name: "the parameters are missing",
			Body: `{"distribution":"normal"}`,
		},
		{
			Name: "a uniform bound is missing",
			Body: `{"distribution":"uniform","parameters":{"start":1}}`,
		},
		{
			Name: "a uniform bound is not an integer",
			Body: `{"distribution":"uniform","parameters":{"start":1.5,"end":3}}`,
		},
		{
			Name: "a uniform bound overflows 32 bits",
			Body: `{"distribution":"uniform","parameters":{"start":9223372036854775806,"end":9223372036854775807}}`,
		},
		{
			Name: "a parameter has the wrong type",
			Body: `{"distribution":"bernoulli","parameters":{"p":"half"}}`,
		},
		{
			Name: "the uniform range is empty",
			Body: `{"distribution":"uniform","parameters":{"start":5,"end":5}}`,
		},
		{
			Name: "the uniform range is reversed",
			Body: `{"distribution":"uniform","parameters":{"start":5,"end":1}}`,
		},
		{
			Name: "the standard deviation is negative",
			Body: `{"distribution":"normal","parameters":{"mean":0,"std_dev":-1}}`,
		},
		{
			Name: "the probability is above 1",
			Body: `{"distribution":"bernoulli","parameters":{"p":1.5}}`,
		},
		{
			Name: "the probability is below 0",
			Body: `{"distribution":"bernoulli","parameters":{"p":-0.1}}`,
		},
	}

	for _, testCase := range testCases {
		t.Run("will return 422 with a message if "+testCase.Name, func(t *testing.T) {
			h := newTestApi(t)

			resp := do(h, http.MethodPost, "/random", testCase.Body)
			if !assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode) {
				return
			}
			if !assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain")) {
				return
			}
			if !assert.NotEmpty(t, readBody(t, resp)) {
				return
			}
		})
	}
}

func TestSample_MaxBodySize(t *testing.T) {
	t.Run("will return 413 if the body is too large", func(t *testing.T) {
		h := newTestApi(t, MaxBodySize(16))

		resp := do(h, http.MethodPost, "/random", `{"distribution":"bernoulli","parameters":{"p":0.5}}`)
		if !assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode) {
			return
		}
	})
}

func TestErrorHandler_HandleError(t *testing.T) {
	log := noop.Logger()

	t.Run("will return 500 with the message", func(t *testing.T) {
		t.Run("if the response could not be serialized", func(t *testing.T) {
			w := httptest.NewRecorder()
			err := endpoint.MarshalResponseError{Cause: errors.New("unsupported value: NaN")}

			errorHandler{log: log}.HandleError(context.Background(), w, err)

			resp := w.Result()
			if !assert.Equal(t, http.StatusInternalServerError, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, err.Error(), readBody(t, resp)) {
				return
			}
		})

		t.Run("if the error is unexpected", func(t *testing.T) {
			w := httptest.NewRecorder()

			errorHandler{log: log}.HandleError(context.Background(), w, errors.New("boom"))

			resp := w.Result()
			if !assert.Equal(t, http.StatusInternalServerError, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "boom", readBody(t, resp)) {
				return
			}
		})
	})

	t.Run("will return an empty 404", func(t *testing.T) {
		t.Run("if the method is not served", func(t *testing.T) {
			w := httptest.NewRecorder()

			errorHandler{log: log}.HandleError(context.Background(), w, endpoint.InvalidMethodError{Method: http.MethodHead})

			resp := w.Result()
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}
			if !assert.Empty(t, readBody(t, resp)) {
				return
			}
		})
	})
}

func TestSampleResponse_MarshalBinary(t *testing.T) {
	t.Run("will fail to serialize a non-finite value", func(t *testing.T) {
		_, err := SampleResponse{Value: math.Inf(1)}.MarshalBinary()
		if !assert.Error(t, err) {
			return
		}
	})
}

func TestNewAdmin(t *testing.T) {
	smp, err := sampler.New(sampler.Seed(1))
	require.NoError(t, err)

	api := New(noop.Logger(), smp)
	admin := newAdmin(8081, api)

	t.Run("will report liveness", func(t *testing.T) {
		resp := do(admin, http.MethodGet, "/health/liveness", "")
		if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
			return
		}
	})

	t.Run("will not be ready if the api is not serving", func(t *testing.T) {
		resp := do(admin, http.MethodGet, "/health/readiness", "")
		if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
			return
		}
	})

	t.Run("will serve the api spec", func(t *testing.T) {
		resp := do(admin, http.MethodGet, "/openapi.json", "")
		if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
			return
		}

		var doc struct {
			Info struct {
				Title string `json:"title"`
			} `json:"info"`
			Paths map[string]map[string]any `json:"paths"`
		}
		err := json.NewDecoder(resp.Body).Decode(&doc)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "rng", doc.Info.Title) {
			return
		}
		if !assert.Contains(t, doc.Paths, "/") {
			return
		}
		if !assert.Contains(t, doc.Paths["/random"], "get") {
			return
		}
		if !assert.Contains(t, doc.Paths["/random"], "post") {
			return
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the otel exporter is unknown", func(t *testing.T) {
			var cfg Config
			cfg.OTel.Exporter = "zipkin"

			_, err := Init(context.Background(), cfg)

			var uerr UnknownExporterError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.Equal(t, "zipkin", uerr.Exporter) {
				return
			}
		})
	})

	t.Run("will run until the context is cancelled", func(t *testing.T) {
		var cfg Config
		cfg.Http.Port = 0
		cfg.Http.ReadHeaderTimeout = time.Second
		cfg.Sampler.Seed = 7

		a, err := Init(context.Background(), cfg)
		if !assert.Nil(t, err) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err = a.Run(ctx)
		if !assert.Nil(t, err) {
			return
		}
	})
}

func TestSampleRequest_UnmarshalBinary(t *testing.T) {
	t.Run("will ignore unknown fields", func(t *testing.T) {
		var req SampleRequest
		err := req.UnmarshalBinary(bytes.TrimSpace([]byte(`
			{"distribution":"bernoulli","parameters":{"p":0.25,"q":1},"extra":true}
		`)))
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Nil(t, req.Validate()) {
			return
		}
	})
}

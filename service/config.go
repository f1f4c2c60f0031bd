// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"log/slog"
	"time"
)

// Config is decoded from the merged config sources by rng.Run.
type Config struct {
	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`

	Http HttpConfig `config:"http"`

	Health struct {
		// admin listener is disabled when 0
		Port uint `config:"port"`
	} `config:"health"`

	OTel OTelConfig `config:"otel"`

	Sampler struct {
		// 0 seeds from crypto/rand
		Seed uint64 `config:"seed"`
	} `config:"sampler"`
}

// HttpConfig configures the listener serving the random value API.
type HttpConfig struct {
	Port              uint          `config:"port"`
	ReadTimeout       time.Duration `config:"readTimeout"`
	ReadHeaderTimeout time.Duration `config:"readHeaderTimeout"`
	WriteTimeout      time.Duration `config:"writeTimeout"`
	IdleTimeout       time.Duration `config:"idleTimeout"`

	// 0 means unlimited
	MaxBodySize int64 `config:"maxBodySize"`
}

// OTelConfig selects where spans are exported.
type OTelConfig struct {
	// one of none, stdout or otlp
	Exporter    string `config:"exporter"`
	ServiceName string `config:"serviceName"`

	OTLP struct {
		Target string `config:"target"`
	} `config:"otlp"`
}

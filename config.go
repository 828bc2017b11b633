// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package walletkit

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/walletengine"
)

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	chainApi        chainapi.ChainApi
	walletEngine    walletengine.WalletEngine
	explorerUrl     string
	dataDir         string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	tracing         bool
	tracingStdout   bool
}

func (c *Config) validate() error {
	if c.explorerUrl == "" && c.chainApi == nil {
		return errors.New("no explorer URL or chain api provided")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the App config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new walletkit config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. The default is to discard log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus registerer for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithExplorerUrl specifies the base URL of the chain explorer API
func WithExplorerUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.explorerUrl = url
	}
}

// WithChainApi specifies the chain API client to use, overriding the
// explorer URL
func WithChainApi(api chainapi.ChainApi) ConfigOptionFunc {
	return func(c *Config) {
		c.chainApi = api
	}
}

// WithWalletEngine specifies the wallet engine to use. The default is a
// local in-memory engine
func WithWalletEngine(engine walletengine.WalletEngine) ConfigOptionFunc {
	return func(c *Config) {
		c.walletEngine = engine
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithRequestTimeout specifies the per-request timeout for explorer calls
func WithRequestTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.requestTimeout = timeout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTracing enables tracing
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. The default is to use OLTP-over-HTTP
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

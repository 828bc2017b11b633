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

// Package app builds and runs the application core from file/env
// configuration, serving prometheus metrics alongside it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/walletkit"
	"github.com/blinklabs-io/walletkit/internal/config"
)

// Build creates an App from file/env configuration.
func Build(cfg *config.Config, logger *slog.Logger) (*walletkit.App, error) {
	// Parse request timeout
	requestTimeout := 30 * time.Second
	if cfg.RequestTimeout != "" {
		var err error
		requestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request timeout: %w", err)
		}
	}
	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	return walletkit.New(
		walletkit.NewConfig(
			walletkit.WithLogger(logger),
			walletkit.WithExplorerUrl(cfg.ExplorerUrl),
			walletkit.WithDataDir(cfg.DataDir),
			walletkit.WithRequestTimeout(requestTimeout),
			walletkit.WithShutdownTimeout(shutdownTimeout),
			walletkit.WithTracing(cfg.Tracing),
			walletkit.WithTracingStdout(cfg.TracingStdout),
			// Enable metrics with default prometheus registry
			walletkit.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "app")
	a, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		// Already validated by Build
		shutdownTimeout, _ = time.ParseDuration(cfg.ShutdownTimeout)
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		fmt.Sprintf(
			"serving prometheus metrics on 127.0.0.1:%d",
			cfg.MetricsPort,
		),
		"component", "app",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"127.0.0.1:%d",
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "app",
			)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run app in goroutine
	errChan := make(chan error, 1)
	go func() {
		err := a.Run()
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")

		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}

		// Shutdown app
		if err := a.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		signalCtxStop()

		// Shutdown app resources
		if stopErr := a.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during cleanup",
				"error",
				stopErr,
			)
		}

		// Cleanup metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("metrics server shutdown error", "error", shutdownErr)
		}

		return err
	}
}

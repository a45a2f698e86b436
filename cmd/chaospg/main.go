// Copyright 2025 ChaosPG Authors
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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/engine"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/version"
)

var configPath string

func main() {
	logger.Initialize()
	defer func() {
		_ = logger.Sync()
	}()

	rootCmd := &cobra.Command{
		Use:     "chaospg",
		Short:   "chaospg - failure-injection lab for Citus/PostgreSQL HA clusters",
		Long:    "chaospg observes a leader-elected Citus cluster and drives repeatable failure-injection scenarios against it.",
		Version: version.GetAppVersion(),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "chaospg.yaml", "Path to the cluster config file")

	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(faultCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config, builds the engine and returns a root context that
// SIGINT/SIGTERM cancels. Cancelled scenarios unwind to their summary and
// recover outstanding faults before the process exits.
func setup() (*engine.Engine, *config.Config, context.Context, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	metricsServer := metrics.SetupMetricsEndpoint(fmt.Sprintf(":%d", cfg.MetricsPort))

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
		eng.Close()
		stop()
	}

	return eng, cfg, ctx, cleanup, nil
}

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

// Package engine is the outward surface of the failover lab. The menu and
// report layers consume exactly four operations: GetSnapshot, RunScenario,
// InjectFault and RecoverFault.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/failover"
	"github.com/chaospg/chaospg/pkg/fault"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/probe"
	"github.com/chaospg/chaospg/pkg/queryprobe"
	"github.com/chaospg/chaospg/pkg/scenario"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
	"github.com/chaospg/chaospg/pkg/service/runtime"
	"github.com/chaospg/chaospg/pkg/service/statusapi"
	"github.com/chaospg/chaospg/pkg/topology"
)

// Engine wires the lab components over concrete service implementations.
type Engine struct {
	cfg *config.Config

	db dbclient.Service

	inspector  *topology.Inspector
	injector   *fault.Injector
	waiter     *failover.Waiter
	stabilizer *failover.Waiter
	probes     *queryprobe.Prober

	logger *zap.SugaredLogger
}

// New creates an engine over the real Docker daemon, the nodes' status
// endpoints and their PostgreSQL instances.
func New(cfg *config.Config) (*Engine, error) {
	rt, err := runtime.NewDockerService()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to container runtime: %w", err)
	}

	status := statusapi.NewHTTPService()
	db := dbclient.NewPgxService(cfg.Timeouts.DirectQuery)

	return NewWithServices(cfg, rt, status, db), nil
}

// NewWithServices creates an engine over explicit service implementations.
// Tests inject mocks here.
func NewWithServices(cfg *config.Config, rt runtime.Service, status statusapi.Service, db dbclient.Service) *Engine {
	prober := probe.NewProber(status, db, probe.Timeouts{
		StatusEndpoint: cfg.Timeouts.StatusEndpoint,
		DirectQuery:    cfg.Timeouts.DirectQuery,
		Probe:          cfg.Timeouts.Probe,
	})
	resolver := topology.NewResolver(prober)
	classifier := topology.NewClassifier(rt, cfg)

	return &Engine{
		cfg:       cfg,
		db:        db,
		inspector: topology.NewInspector(classifier, resolver, cfg),
		injector:  fault.NewInjector(rt),
		waiter: failover.NewWaiter(resolver, db,
			cfg.Timeouts.PollInterval, cfg.Timeouts.FailoverBudget, cfg.Timeouts.DirectQuery),
		stabilizer: failover.NewWaiter(resolver, db,
			cfg.Timeouts.PollInterval, cfg.Timeouts.StabilizationBudget, cfg.Timeouts.DirectQuery),
		probes: queryprobe.NewProber(db, cfg.Queries, cfg.Timeouts.QueryProbe),
		logger: logger.For(logger.ComponentEngine),
	}
}

// GetSnapshot classifies the deployment and resolves every group once.
func (e *Engine) GetSnapshot(ctx context.Context) *models.TopologySnapshot {
	return e.inspector.TakeSnapshot(ctx)
}

// RunScenario executes one scenario run and returns its report. The report
// is non-nil even when the run halted or was aborted.
func (e *Engine) RunScenario(ctx context.Context, scn scenario.Config) (*scenario.Report, error) {
	orchestrator := scenario.NewOrchestrator(
		e.cfg, scn, e.inspector, e.injector, e.waiter, e.stabilizer, e.probes)

	return orchestrator.Run(ctx)
}

// InjectFault pauses the named node.
func (e *Engine) InjectFault(ctx context.Context, nodeName string) error {
	node, ok := e.cfg.NodeByName(nodeName)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeName)
	}

	return e.injector.Inject(ctx, node)
}

// RecoverFault unpauses the named node.
func (e *Engine) RecoverFault(ctx context.Context, nodeName string) error {
	node, ok := e.cfg.NodeByName(nodeName)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeName)
	}

	return e.injector.Recover(ctx, node)
}

// RecoverOutstanding unconditionally recovers any outstanding fault.
// Shutdown paths call this so no node stays suspended.
func (e *Engine) RecoverOutstanding(ctx context.Context) error {
	return e.injector.RecoverAll(ctx)
}

// Close releases pooled database connections.
func (e *Engine) Close() {
	e.db.Close()
}

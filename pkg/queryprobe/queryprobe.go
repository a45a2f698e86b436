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

// Package queryprobe characterizes cluster availability with three query
// tiers of increasing blast radius: reference data, one shard, cross-shard.
// The tiers exist because different query shapes fail differently under
// partial-cluster failure; conflating them would erase the observation.
package queryprobe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
)

// Prober issues the tiered probe queries against the current leader.
type Prober struct {
	db      dbclient.Service
	queries config.QueryConfig
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewProber creates a query prober.
func NewProber(db dbclient.Service, queries config.QueryConfig, timeout time.Duration) *Prober {
	return &Prober{
		db:      db,
		queries: queries,
		timeout: timeout,
		logger:  logger.For(logger.ComponentQueryProbe),
	}
}

// Run probes all three tiers against leader and classifies each outcome.
// leader may be nil (no resolved leader); every tier fails then.
//
// failoverActive marks an in-progress failover window: sharded and
// cross-shard failures are transient inside the window and hard outside it.
// Reference-tier failures are always hard; that data is reachable from any
// node, so failing to read it means nothing is working.
func (p *Prober) Run(ctx context.Context, leader *models.Node, failoverActive bool) []models.ProbeResult {
	tiers := []struct {
		tier models.QueryTier
		sql  string
	}{
		{models.TierReference, p.queries.Reference},
		{models.TierSharded, p.queries.Sharded},
		{models.TierCrossShard, p.queries.CrossShard},
	}

	results := make([]models.ProbeResult, 0, len(tiers))
	for _, t := range tiers {
		results = append(results, p.probeTier(ctx, leader, t.tier, t.sql, failoverActive))
	}

	return results
}

func (p *Prober) probeTier(ctx context.Context, leader *models.Node, tier models.QueryTier, sql string, failoverActive bool) models.ProbeResult {
	result := models.ProbeResult{Tier: tier}

	if leader == nil {
		result.Outcome = classifyFailure(tier, failoverActive)
		result.Error = "no resolved leader to probe"
		p.logger.Infow("Probe skipped, no leader", "tier", tier, "outcome", result.Outcome)

		return result
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	rows, err := p.db.Query(queryCtx, *leader, sql)
	result.Latency = time.Since(started)

	if err != nil {
		result.Outcome = classifyFailure(tier, failoverActive)
		result.Error = err.Error()
		p.logger.Infow("Probe failed",
			"tier", tier,
			"node", leader.Name,
			"outcome", result.Outcome,
			"error", err)

		return result
	}

	result.Outcome = models.OutcomeSuccess
	p.logger.Debugw("Probe succeeded",
		"tier", tier,
		"node", leader.Name,
		"rows", rows,
		"latency", result.Latency)

	return result
}

// classifyFailure applies the tier semantics. The reference tier never
// yields a transient classification.
func classifyFailure(tier models.QueryTier, failoverActive bool) models.ProbeOutcome {
	if tier == models.TierReference {
		return models.OutcomeHardFailure
	}
	if failoverActive {
		return models.OutcomeTransientFailure
	}

	return models.OutcomeHardFailure
}

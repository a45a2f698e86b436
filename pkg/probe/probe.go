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

// Package probe observes single nodes through two independent channels:
// the status endpoint (fast, group-aware, may be down on its own) and a
// direct database query (slower, only distinguishes primary from standby).
// An unreachable node is an expected observation, not an error.
package probe

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
	"github.com/chaospg/chaospg/pkg/service/statusapi"
)

// Timeouts bounds the two probe channels and the probe as a whole.
type Timeouts struct {
	StatusEndpoint time.Duration
	DirectQuery    time.Duration
	// Probe caps one whole per-node probe across both channels. Zero means
	// no overall cap beyond the per-channel ones.
	Probe time.Duration
}

// Prober produces fresh NodeStatus observations. Results are never cached;
// failover timing makes staleness unacceptable.
type Prober struct {
	status   statusapi.Service
	db       dbclient.Service
	timeouts Timeouts
	logger   *zap.SugaredLogger
}

// NewProber creates a node prober over the two detection channels.
func NewProber(status statusapi.Service, db dbclient.Service, timeouts Timeouts) *Prober {
	return &Prober{
		status:   status,
		db:       db,
		timeouts: timeouts,
		logger:   logger.For(logger.ComponentNodeProbe),
	}
}

// Probe observes one node. The status endpoint channel is tried first when
// the node exposes one; the direct-query channel is the fallback. Role is
// Unknown only when both channels fail.
func (p *Prober) Probe(ctx context.Context, node models.Node) models.NodeStatus {
	if p.timeouts.Probe > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeouts.Probe)
		defer cancel()
	}

	started := time.Now()
	status := models.NodeStatus{
		Node:       node,
		Role:       models.RoleUnknown,
		Channel:    models.ChannelNone,
		ObservedAt: started,
	}

	if node.StatusURL != "" {
		if role, ok := p.probeStatusEndpoint(ctx, node); ok {
			status.Reachable = true
			status.Ready = true
			status.Role = role
			status.Channel = models.ChannelStatusEndpoint
			status.Latency = time.Since(started)
			metrics.ObserveProbe(string(models.ChannelStatusEndpoint), "success")

			return status
		}
		metrics.ObserveProbe(string(models.ChannelStatusEndpoint), "unreachable")
	}

	if role, ok := p.probeDirectQuery(ctx, node); ok {
		status.Reachable = true
		status.Ready = true
		status.Role = role
		status.Channel = models.ChannelDirectQuery
		status.Latency = time.Since(started)
		metrics.ObserveProbe(string(models.ChannelDirectQuery), "success")

		return status
	}
	metrics.ObserveProbe(string(models.ChannelDirectQuery), "unreachable")

	status.Latency = time.Since(started)
	p.logger.Debugf("Node %s unreachable on both channels", node.Name)

	return status
}

// probeStatusEndpoint maps the endpoint role onto the node's role set:
// coordinators report Leader/Replica, workers Primary/Standby.
func (p *Prober) probeStatusEndpoint(ctx context.Context, node models.Node) (models.Role, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeouts.StatusEndpoint)
	defer cancel()

	report, err := p.status.GetRole(reqCtx, node.StatusURL)
	if err != nil {
		p.logger.Debugf("Status endpoint of %s did not answer: %v", node.Name, err)

		return models.RoleUnknown, false
	}

	if node.Kind == models.KindCoordinator {
		if report.Leading {
			return models.RoleLeader, true
		}

		return models.RoleReplica, true
	}

	if report.Leading {
		return models.RolePrimary, true
	}

	return models.RoleStandby, true
}

// probeDirectQuery asks the database engine whether it is in recovery. The
// answer only distinguishes Primary from Standby; it cannot confirm
// whole-cluster leadership for a multi-coordinator set.
func (p *Prober) probeDirectQuery(ctx context.Context, node models.Node) (models.Role, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeouts.DirectQuery)
	defer cancel()

	inRecovery, err := p.db.IsInRecovery(reqCtx, node)
	if err != nil {
		p.logger.Debugf("Direct query against %s did not answer: %v", node.Name, err)

		return models.RoleUnknown, false
	}

	if inRecovery {
		return models.RoleStandby, true
	}

	return models.RolePrimary, true
}

// ProbeGroup observes all candidates of one group in parallel, each under
// its own channel timeouts. Serial probing would multiply worst-case latency
// by the candidate count and stretch failover detection. Results preserve
// candidate order.
func (p *Prober) ProbeGroup(ctx context.Context, nodes []models.Node) []models.NodeStatus {
	statuses := make([]models.NodeStatus, len(nodes))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(nodes) + 1)
	for i, node := range nodes {
		g.Go(func() error {
			statuses[i] = p.Probe(groupCtx, node)

			return nil
		})
	}
	// Workers never return errors; unreachable is a valid observation.
	_ = g.Wait()

	return statuses
}

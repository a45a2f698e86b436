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

package topology

import (
	"context"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/probe"
)

// ResolveOptions adjusts one resolution pass.
type ResolveOptions struct {
	// Exclude removes one node from candidacy, typically the node a fault
	// was just injected into. A paused node serving stale role data must
	// never be accepted as the surviving leader.
	Exclude string
}

// Resolution is the outcome of one resolution pass over a candidate set.
type Resolution struct {
	Leader models.ResolvedLeader
	// Found is false when no candidate could be treated as leader at all.
	Found bool
	// Statuses holds the per-candidate observations that fed the decision.
	Statuses []models.NodeStatus
}

// Resolver determines which candidate of a group currently leads it.
// It never blocks beyond the probe timeouts and never errors for an
// unreachable group; absence of a result is the expected representation
// of failure mid-election.
type Resolver struct {
	prober *probe.Prober
	logger *zap.SugaredLogger
}

// NewResolver creates a role resolver over the given prober.
func NewResolver(p *probe.Prober) *Resolver {
	return &Resolver{
		prober: p,
		logger: logger.For(logger.ComponentResolver),
	}
}

// Resolve probes all candidates in parallel and picks the leader.
//
// Selection order:
//  1. exactly one candidate in a leading role: that candidate, confirmed;
//  2. several leading candidates (split-brain artifact of polling during an
//     election): the first whose observation came from the status endpoint
//     channel, since the endpoint is authoritative; logged and counted;
//  3. no leading candidate: the first merely reachable and ready candidate
//     as an unconfirmed best guess;
//  4. nothing reachable: no result.
func (r *Resolver) Resolve(ctx context.Context, candidates []models.Node, opts ResolveOptions) Resolution {
	eligible := make([]models.Node, 0, len(candidates))
	for _, node := range candidates {
		if node.Name == opts.Exclude {
			continue
		}
		eligible = append(eligible, node)
	}
	if len(eligible) == 0 {
		return Resolution{}
	}

	statuses := r.prober.ProbeGroup(ctx, eligible)

	var leading []models.NodeStatus
	for _, s := range statuses {
		if s.IsLeading() {
			leading = append(leading, s)
		}
	}

	switch {
	case len(leading) == 1:
		return Resolution{
			Leader: models.ResolvedLeader{
				Node:      leading[0].Node,
				Confirmed: true,
				Channel:   leading[0].Channel,
			},
			Found:    true,
			Statuses: statuses,
		}

	case len(leading) > 1:
		group := leading[0].Node.Group
		r.logger.Warnw("Multiple candidates claim leadership",
			"group", group,
			"candidates", nodeNames(leading))
		metrics.ObserveAmbiguity(group)

		pick := leading[0]
		for _, s := range leading {
			if s.Channel == models.ChannelStatusEndpoint {
				pick = s

				break
			}
		}

		return Resolution{
			Leader: models.ResolvedLeader{
				Node:      pick.Node,
				Confirmed: true,
				Channel:   pick.Channel,
			},
			Found:    true,
			Statuses: statuses,
		}
	}

	// Nobody reports a leading role; mid-election this is expected. Fall
	// back to the first reachable and ready candidate as a best guess.
	for _, s := range statuses {
		if s.Reachable && s.Ready {
			r.logger.Infow("No confirmed leader, using best guess",
				"group", s.Node.Group,
				"node", s.Node.Name)

			return Resolution{
				Leader: models.ResolvedLeader{
					Node:      s.Node,
					Confirmed: false,
					Channel:   s.Channel,
				},
				Found:    true,
				Statuses: statuses,
			}
		}
	}

	return Resolution{Statuses: statuses}
}

func nodeNames(statuses []models.NodeStatus) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Node.Name)
	}

	return names
}

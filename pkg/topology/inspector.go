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
	"time"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/models"
)

// Inspector combines one classification pass with one role resolution per
// group into an immutable TopologySnapshot. The snapshot is an explicit
// value passed through the call chain; no process-wide current-leader state
// exists anywhere.
type Inspector struct {
	classifier *Classifier
	resolver   *Resolver
	cfg        *config.Config
	logger     *zap.SugaredLogger
}

// NewInspector creates a topology inspector.
func NewInspector(classifier *Classifier, resolver *Resolver, cfg *config.Config) *Inspector {
	return &Inspector{
		classifier: classifier,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger.For(logger.ComponentInspector),
	}
}

// GroupsForVariant returns the candidate sets in effect for a variant, in
// stable order. The minimal variant has a single one-node coordinator group;
// VariantNone has none.
func (i *Inspector) GroupsForVariant(variant models.ArchitectureVariant) (map[string][]models.Node, []string) {
	switch variant {
	case models.VariantReplicatedHA:
		return i.cfg.Groups()
	case models.VariantMinimal:
		node := i.cfg.Cluster.MinimalNode.Node()

		return map[string][]models.Node{node.Group: {node}}, []string{node.Group}
	default:
		return map[string][]models.Node{}, nil
	}
}

// TakeSnapshot classifies the deployment and resolves every group. Groups
// mid-election are simply absent from the leader map; that is a valid
// snapshot, not a failure.
func (i *Inspector) TakeSnapshot(ctx context.Context) *models.TopologySnapshot {
	variant := i.classifier.Classify(ctx)

	snapshot := &models.TopologySnapshot{
		Variant: variant,
		Leaders: make(map[string]models.ResolvedLeader),
		TakenAt: time.Now(),
	}

	groups, order := i.GroupsForVariant(variant)
	for _, group := range order {
		resolution := i.resolver.Resolve(ctx, groups[group], ResolveOptions{})
		snapshot.Statuses = append(snapshot.Statuses, resolution.Statuses...)
		if resolution.Found {
			snapshot.Leaders[group] = resolution.Leader
		} else {
			i.logger.Infof("Group %s has no resolvable leader", group)
		}
	}

	return snapshot
}

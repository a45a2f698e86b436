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

// Package topology classifies the running deployment variant and resolves
// the leader/primary of each role-set.
package topology

import (
	"context"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/runtime"
)

// Classifier decides which deployment variant is active from runtime
// container existence alone. No node is probed for health at this stage.
type Classifier struct {
	runtime runtime.Service
	cluster *config.ClusterConfig
	marker  models.Node
	logger  *zap.SugaredLogger
}

// NewClassifier creates an architecture classifier for the declared cluster.
func NewClassifier(rt runtime.Service, cfg *config.Config) *Classifier {
	return &Classifier{
		runtime: rt,
		cluster: &cfg.Cluster,
		marker:  cfg.HAMarkerNode(),
		logger:  logger.For(logger.ComponentClassifier),
	}
}

// Classify derives the ArchitectureVariant. A variant of None means
// "cluster not running"; downstream components treat it as a valid state,
// never as an error to propagate.
func (c *Classifier) Classify(ctx context.Context) models.ArchitectureVariant {
	if c.isRunning(ctx, c.marker.Container) {
		return models.VariantReplicatedHA
	}

	if c.cluster.MinimalNode.Container != "" && c.isRunning(ctx, c.cluster.MinimalNode.Container) {
		return models.VariantMinimal
	}

	c.logger.Debugf("Neither %s nor %s is running, no cluster detected",
		c.marker.Container, c.cluster.MinimalNode.Container)

	return models.VariantNone
}

// isRunning absorbs runtime errors into "not running"; classification must
// not fail just because the runtime briefly did.
func (c *Classifier) isRunning(ctx context.Context, container string) bool {
	running, err := c.runtime.IsRunning(ctx, container)
	if err != nil {
		c.logger.Debugf("Runtime check for %s failed: %v", container, err)

		return false
	}

	return running
}

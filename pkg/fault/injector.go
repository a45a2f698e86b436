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

// Package fault injects and reverses simulated node failures by pausing and
// unpausing containers. Inject and Recover are idempotent; the most recent
// FaultRecord is retained for the failover waiter.
package fault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/runtime"
)

// Injector pauses and unpauses nodes and tracks the most recent fault.
type Injector struct {
	runtime runtime.Service
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	last *models.FaultRecord
}

// NewInjector creates a fault injector over the container runtime.
func NewInjector(rt runtime.Service) *Injector {
	return &Injector{
		runtime: rt,
		logger:  logger.For(logger.ComponentFaultInjector),
	}
}

// Inject suspends the node's container, simulating an unresponsive but not
// destroyed failure. Injecting an already-suspended node is a no-op; the
// existing FaultRecord is kept so the original injection time survives.
func (i *Injector) Inject(ctx context.Context, node models.Node) error {
	paused, err := i.runtime.IsPaused(ctx, node.Container)
	if err != nil {
		return fmt.Errorf("failed to check state of %s before injection: %w", node.Name, err)
	}
	if paused {
		i.logger.Infof("Node %s is already paused, injection is a no-op", node.Name)

		return nil
	}

	running, err := i.runtime.IsRunning(ctx, node.Container)
	if err != nil {
		return fmt.Errorf("failed to check state of %s before injection: %w", node.Name, err)
	}
	if !running {
		return fmt.Errorf("cannot inject fault into %s: container %s is not running", node.Name, node.Container)
	}

	if err := i.runtime.Pause(ctx, node.Container); err != nil {
		return fmt.Errorf("failed to inject fault into %s: %w", node.Name, err)
	}

	i.mu.Lock()
	i.last = &models.FaultRecord{
		NodeName:   node.Name,
		Container:  node.Container,
		InjectedAt: time.Now(),
	}
	i.mu.Unlock()

	metrics.ObserveFault(node.Name, "inject")
	i.logger.Infow("Fault injected", "node", node.Name, "container", node.Container)

	return nil
}

// Recover resumes the node's container. Recovering an already-running node
// is a no-op. The FaultRecord is cleared when it refers to this node.
func (i *Injector) Recover(ctx context.Context, node models.Node) error {
	paused, err := i.runtime.IsPaused(ctx, node.Container)
	if err != nil {
		return fmt.Errorf("failed to check state of %s before recovery: %w", node.Name, err)
	}
	if paused {
		if err := i.runtime.Unpause(ctx, node.Container); err != nil {
			return fmt.Errorf("failed to recover %s: %w", node.Name, err)
		}
		metrics.ObserveFault(node.Name, "recover")
		i.logger.Infow("Fault recovered", "node", node.Name, "container", node.Container)
	} else {
		i.logger.Infof("Node %s is not paused, recovery is a no-op", node.Name)
	}

	i.mu.Lock()
	if i.last != nil && i.last.NodeName == node.Name {
		i.last = nil
	}
	i.mu.Unlock()

	return nil
}

// LastFault returns a copy of the most recent outstanding fault, if any.
func (i *Injector) LastFault() *models.FaultRecord {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.last == nil {
		return nil
	}
	record := *i.last

	return &record
}

// ClearFault drops the outstanding fault record without touching the node.
func (i *Injector) ClearFault() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = nil
}

// RecoverAll unconditionally attempts to resume every node with an
// outstanding fault record. Abort handlers call this so no node is left
// stuck in a suspended state.
func (i *Injector) RecoverAll(ctx context.Context) error {
	record := i.LastFault()
	if record == nil {
		return nil
	}

	i.logger.Infof("Recovering outstanding fault on %s", record.NodeName)
	if err := i.runtime.Unpause(ctx, record.Container); err != nil {
		return fmt.Errorf("failed to recover outstanding fault on %s: %w", record.NodeName, err)
	}
	metrics.ObserveFault(record.NodeName, "recover")
	i.ClearFault()

	return nil
}

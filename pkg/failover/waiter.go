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

// Package failover waits for a new leader after a fault. The wait is a
// bounded, cancellable, constant-interval poll; exhausting the budget is a
// degraded result, never a hard failure, so demonstrations stay informative
// even when election is slow.
package failover

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
	"github.com/chaospg/chaospg/pkg/topology"
)

// ErrElectionTimeout marks a wait that exhausted its budget without a new
// ready leader. It is surfaced inside Result, not returned as an error.
var ErrElectionTimeout = errors.New("election did not complete within budget")

// errStillElecting drives the retry loop between polls.
var errStillElecting = errors.New("still electing")

// Result is the outcome of one failover wait.
type Result struct {
	// Leader is the newly resolved leader when Found is true, or the best
	// current guess on timeout when one exists.
	Leader models.ResolvedLeader
	Found  bool
	// TimedOut is true when the budget was exhausted (or no candidate
	// existed to fail over to).
	TimedOut bool
	Elapsed  time.Duration
	Attempts int
}

// Waiter polls role resolution until a new leader is ready.
type Waiter struct {
	resolver *topology.Resolver
	db       dbclient.Service
	interval time.Duration
	budget   time.Duration
	readyTTL time.Duration
	logger   *zap.SugaredLogger
}

// NewWaiter creates a failover waiter. interval is the polling interval,
// budget the total wait cap and readyTimeout the per-poll readiness query
// budget.
func NewWaiter(resolver *topology.Resolver, db dbclient.Service, interval, budget, readyTimeout time.Duration) *Waiter {
	return &Waiter{
		resolver: resolver,
		db:       db,
		interval: interval,
		budget:   budget,
		readyTTL: readyTimeout,
		logger:   logger.For(logger.ComponentFailoverWaiter),
	}
}

// AwaitNewLeader waits until the group resolves a leader other than the
// failed node recorded in fault, and that leader answers a readiness query.
// Resolving the role alone is not enough; promotion and query-serving
// readiness are not simultaneous.
//
// fault may be nil, in which case no node is excluded; this doubles as the
// post-recovery stabilization wait.
func (w *Waiter) AwaitNewLeader(ctx context.Context, candidates []models.Node, fault *models.FaultRecord) Result {
	started := time.Now()
	group := ""
	if len(candidates) > 0 {
		group = candidates[0].Group
	}

	opts := topology.ResolveOptions{}
	if fault != nil {
		opts.Exclude = fault.NodeName
	}

	eligible := 0
	for _, c := range candidates {
		if c.Name != opts.Exclude {
			eligible++
		}
	}
	if eligible == 0 {
		// Nothing to fail over to; a minimal deployment ends up here the
		// moment its only coordinator is failed.
		w.logger.Warnf("Group %s has no candidate besides the failed node, election cannot complete", group)
		metrics.ObserveElectionTimeout(group)

		return Result{TimedOut: true, Elapsed: time.Since(started)}
	}

	maxRetries := uint64(w.budget / w.interval)
	if maxRetries == 0 {
		maxRetries = 1
	}

	// The retry cap alone does not bound elapsed time: a paused or
	// partitioned node makes every probe run to its channel timeout instead
	// of failing fast. The deadline keeps the whole wait inside the budget
	// regardless of how long individual polls take.
	waitCtx, cancel := context.WithTimeout(ctx, w.budget)
	defer cancel()

	var result Result
	operation := func() error {
		result.Attempts++
		elapsed := time.Since(started)

		resolution := w.resolver.Resolve(waitCtx, candidates, opts)
		if resolution.Found {
			// Keep the best guess around even if readiness never arrives.
			result.Leader = resolution.Leader

			if w.isReady(waitCtx, resolution.Leader.Node) {
				result.Found = true

				return nil
			}

			w.logger.Infow("Leader resolved but not ready yet",
				"group", group,
				"node", resolution.Leader.Node.Name,
				"elapsed", elapsed)

			return errStillElecting
		}

		w.logger.Infow("Still electing",
			"group", group,
			"attempt", result.Attempts,
			"elapsed", elapsed)

		return errStillElecting
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(w.interval), maxRetries),
		waitCtx,
	)

	err := backoff.Retry(operation, policy)
	result.Elapsed = time.Since(started)

	if err != nil {
		result.TimedOut = true
		metrics.ObserveElectionTimeout(group)
		w.logger.Warnw("Failover wait exhausted its budget",
			"group", group,
			"attempts", result.Attempts,
			"elapsed", result.Elapsed,
			"bestGuess", result.Leader.Node.Name)

		return result
	}

	metrics.ObserveFailoverDuration(group, result.Elapsed)
	w.logger.Infow("New leader ready",
		"group", group,
		"node", result.Leader.Node.Name,
		"attempts", result.Attempts,
		"elapsed", result.Elapsed)

	return result
}

// isReady runs the lightweight readiness query against a freshly resolved
// leader.
func (w *Waiter) isReady(ctx context.Context, node models.Node) bool {
	readyCtx, cancel := context.WithTimeout(ctx, w.readyTTL)
	defer cancel()

	if err := w.db.Ping(readyCtx, node); err != nil {
		return false
	}

	return true
}

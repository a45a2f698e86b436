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

package scenario

import (
	"context"
	"fmt"

	"github.com/chaospg/chaospg/pkg/models"
)

// note records a human-oriented observation for the stage being executed.
func (o *Orchestrator) note(format string, args ...any) {
	o.pendingNotes = append(o.pendingNotes, fmt.Sprintf(format, args...))
}

// appendStageNotes moves pending notes onto the finished stage result.
func (o *Orchestrator) appendStageNotes(result *StageResult, _ string) {
	result.Notes = append(result.Notes, o.pendingNotes...)
	o.pendingNotes = nil
}

// runBaseline takes the initial snapshot and checks the run preconditions:
// a running cluster, a known target group and a resolved leader for every
// group in the variant.
func (o *Orchestrator) runBaseline(ctx context.Context) error {
	snapshot := o.inspector.TakeSnapshot(ctx)
	o.report.Baseline = snapshot
	o.report.Variant = snapshot.Variant

	if snapshot.Variant == models.VariantNone {
		return preconditionErr("no cluster is running")
	}

	groups, order := o.inspector.GroupsForVariant(snapshot.Variant)
	candidates, ok := groups[o.scn.TargetGroup]
	if !ok {
		return preconditionErr("target group %q does not exist in the %s variant", o.scn.TargetGroup, snapshot.Variant)
	}
	o.candidates = candidates

	for _, group := range order {
		if _, resolved := snapshot.LeaderOf(group); !resolved {
			return preconditionErr("group %q has no resolved leader in the baseline snapshot", group)
		}
	}

	leader, _ := snapshot.LeaderOf(o.scn.TargetGroup)
	o.note("baseline leader of %s is %s (confirmed=%t)", o.scn.TargetGroup, leader.Node.Name, leader.Confirmed)

	return nil
}

// runInjectFault determines the fault target and pauses it. The target is
// the observed leader of the target group unless explicitly overridden;
// node names are never assumed to identify the leader.
func (o *Orchestrator) runInjectFault(ctx context.Context) error {
	leader, ok := o.report.Baseline.LeaderOf(o.scn.TargetGroup)
	if !ok {
		return preconditionErr("no healthy leader in group %q to inject a fault into", o.scn.TargetGroup)
	}
	o.target = leader.Node

	if o.scn.TargetNode != "" {
		found := false
		for _, c := range o.candidates {
			if c.Name == o.scn.TargetNode {
				o.target = c
				found = true

				break
			}
		}
		if !found {
			return preconditionErr("target node %q is not a member of group %q", o.scn.TargetNode, o.scn.TargetGroup)
		}
	}

	if err := o.injector.Inject(ctx, o.target); err != nil {
		return fmt.Errorf("fault injection into %s failed: %w", o.target.Name, err)
	}

	o.faultRec = o.injector.LastFault()
	o.report.FailedNode = o.target.Name
	o.note("injected fault into %s", o.target.Name)

	return nil
}

// runAwaitFailover waits for a new leader excluding the failed node. An
// exhausted budget is a degraded result, recorded and carried forward, not
// a halt.
func (o *Orchestrator) runAwaitFailover(ctx context.Context) error {
	o.waitResult = o.waiter.AwaitNewLeader(ctx, o.candidates, o.faultRec)

	o.report.ElectionTimedOut = o.waitResult.TimedOut
	o.report.FailoverElapsed = o.waitResult.Elapsed
	if o.waitResult.Leader.Node.Name != "" {
		leader := o.waitResult.Leader
		o.report.NewLeader = &leader
	}

	switch {
	case o.waitResult.Found:
		o.note("new leader %s ready after %s (%d polls)",
			o.waitResult.Leader.Node.Name,
			o.waitResult.Elapsed.Round(timeRounding),
			o.waitResult.Attempts)
	case o.waitResult.Leader.Node.Name != "":
		o.note("election timed out after %s; best guess leader %s",
			o.waitResult.Elapsed.Round(timeRounding), o.waitResult.Leader.Node.Name)
	default:
		o.note("election timed out after %s with no candidate", o.waitResult.Elapsed.Round(timeRounding))
	}

	return nil
}

// failoverWindowActive reports whether a failover can still be in progress:
// a fault is outstanding and at least one candidate besides the failed node
// exists. A minimal deployment has nobody to elect, so its failures are hard
// rather than transient.
func (o *Orchestrator) failoverWindowActive() bool {
	if o.faultRec == nil {
		return false
	}
	for _, c := range o.candidates {
		if c.Name != o.faultRec.NodeName {
			return true
		}
	}

	return false
}

// runProbeDuringFailure probes the tiers inside the failover window.
func (o *Orchestrator) runProbeDuringFailure(ctx context.Context) error {
	var leader *models.Node
	if o.waitResult.Found {
		node := o.waitResult.Leader.Node
		leader = &node
	}

	o.report.DuringFailure = o.probes.Run(ctx, leader, o.failoverWindowActive())

	return nil
}

// runRecover unpauses the failed node.
func (o *Orchestrator) runRecover(ctx context.Context) error {
	if err := o.injector.Recover(ctx, o.target); err != nil {
		return fmt.Errorf("recovery of %s failed: %w", o.target.Name, err)
	}
	o.note("recovered %s", o.target.Name)

	return nil
}

// runAwaitStabilization waits, without excluding anyone, until the target
// group again has a ready leader. Failing to stabilize is recorded, not
// fatal; the closing probes will show the impact.
func (o *Orchestrator) runAwaitStabilization(ctx context.Context) error {
	o.stabResult = o.stabilizer.AwaitNewLeader(ctx, o.candidates, nil)

	if o.stabResult.Found {
		o.note("group %s stable under leader %s", o.scn.TargetGroup, o.stabResult.Leader.Node.Name)
	} else {
		o.note("group %s did not stabilize within budget", o.scn.TargetGroup)
	}

	return nil
}

// runProbeAfterRecovery probes the tiers outside the failover window.
func (o *Orchestrator) runProbeAfterRecovery(ctx context.Context) error {
	var leader *models.Node
	switch {
	case o.stabResult.Found:
		node := o.stabResult.Leader.Node
		leader = &node
	case o.waitResult.Found:
		node := o.waitResult.Leader.Node
		leader = &node
	}

	o.report.AfterRecovery = o.probes.Run(ctx, leader, false)

	return nil
}

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

// Package scenario drives repeatable failure-injection demonstrations as a
// linear state machine: baseline, inject, await failover, probe, recover,
// await stabilization, probe again, summarize. Summarize is always reached,
// even on abort, and partial results are still reported.
package scenario

import (
	"errors"
	"fmt"
)

// Stage constants. Stages are explicit; none may be skipped silently.
const (
	StageBaseline           = "baseline"
	StageInjectFault        = "inject_fault"
	StageAwaitFailover      = "await_failover"
	StageProbeDuringFailure = "probe_during_failure"
	StageRecover            = "recover"
	StageAwaitStabilization = "await_stabilization"
	StageProbeAfterRecovery = "probe_after_recovery"
	StageSummarize          = "summarize"
)

// Event constants for state transitions.
const (
	// EventAdvance moves to the next stage in the linear chain.
	EventAdvance = "advance"
	// EventAbort jumps to Summarize from any stage.
	EventAbort = "abort"
)

// ErrPreconditionFailed marks a stage whose precondition was not met. It is
// the only error class that propagates up the scenario stack; per-node
// failures are absorbed and classified where they happen.
var ErrPreconditionFailed = errors.New("scenario precondition failed")

// preconditionErr wraps a reason into ErrPreconditionFailed.
func preconditionErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}

// Config selects what a scenario run fails and how long it waits.
type Config struct {
	// TargetGroup is the role-set whose leader gets failed,
	// e.g. "coordinators" or "workers-1".
	TargetGroup string
	// TargetNode optionally overrides the fault target. When empty, the
	// resolved leader of TargetGroup is failed; naming conventions are
	// never trusted to identify the leader.
	TargetNode string
}

// stageOrder is the linear stage chain of one run.
var stageOrder = []string{
	StageBaseline,
	StageInjectFault,
	StageAwaitFailover,
	StageProbeDuringFailure,
	StageRecover,
	StageAwaitStabilization,
	StageProbeAfterRecovery,
	StageSummarize,
}

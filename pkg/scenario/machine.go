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
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/failover"
	"github.com/chaospg/chaospg/pkg/fault"
	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/metrics"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/queryprobe"
	"github.com/chaospg/chaospg/pkg/topology"
)

// Orchestrator owns one scenario run: the state machine, the run-scoped
// snapshot and fault record, and the components it composes. No two
// scenarios run concurrently against the same cluster.
type Orchestrator struct {
	cfg        *config.Config
	scn        Config
	inspector  *topology.Inspector
	injector   *fault.Injector
	waiter     *failover.Waiter
	stabilizer *failover.Waiter
	probes     *queryprobe.Prober
	logger     *zap.SugaredLogger

	machine *fsm.FSM

	// Run-scoped state, owned exclusively by this orchestrator for the
	// duration of one Run.
	report     *Report
	candidates []models.Node
	target     models.Node
	faultRec   *models.FaultRecord
	waitResult failover.Result
	stabResult failover.Result
	// pendingNotes buffers observations until the running stage finishes.
	pendingNotes []string
}

// timeRounding is the display rounding for durations in notes.
const timeRounding = time.Millisecond

// NewOrchestrator wires a scenario orchestrator from its components.
func NewOrchestrator(
	cfg *config.Config,
	scn Config,
	inspector *topology.Inspector,
	injector *fault.Injector,
	waiter *failover.Waiter,
	stabilizer *failover.Waiter,
	probes *queryprobe.Prober,
) *Orchestrator {
	if scn.TargetGroup == "" {
		scn.TargetGroup = "coordinators"
	}

	return &Orchestrator{
		cfg:        cfg,
		scn:        scn,
		inspector:  inspector,
		injector:   injector,
		waiter:     waiter,
		stabilizer: stabilizer,
		probes:     probes,
		logger:     logger.For(logger.ComponentScenario),
	}
}

// newMachine builds the linear stage machine. Every transition is explicit;
// EventAbort reaches Summarize from anywhere.
func (o *Orchestrator) newMachine() *fsm.FSM {
	events := fsm.Events{}
	for i := 0; i < len(stageOrder)-1; i++ {
		events = append(events, fsm.EventDesc{
			Name: EventAdvance,
			Src:  []string{stageOrder[i]},
			Dst:  stageOrder[i+1],
		})
	}
	events = append(events, fsm.EventDesc{
		Name: EventAbort,
		Src:  stageOrder[:len(stageOrder)-1],
		Dst:  StageSummarize,
	})

	return fsm.NewFSM(
		StageBaseline,
		events,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				o.logger.Infow("Stage transition", "from", e.Src, "to", e.Dst)
			},
		},
	)
}

// Run executes the scenario to completion. Summarize always runs, partial
// results included, and any outstanding fault is recovered before Run
// returns; aborting an operator-cancelled run must not leave a node
// suspended.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	o.machine = o.newMachine()
	o.report = &Report{
		RunID:       uuid.NewString(),
		TargetGroup: o.scn.TargetGroup,
		StartedAt:   time.Now(),
	}
	o.logger.Infow("Scenario starting", "runID", o.report.RunID, "targetGroup", o.scn.TargetGroup)

	defer func() {
		// Unconditional unwind: never leave a node paused behind us.
		if o.injector.LastFault() != nil {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := o.injector.RecoverAll(cleanupCtx); err != nil {
				metrics.IncErrorCount(metrics.ComponentScenario)
				o.logger.Errorf("Failed to recover outstanding fault during unwind: %v", err)
			}
		}
	}()

	stageFuncs := map[string]func(context.Context) error{
		StageBaseline:           o.runBaseline,
		StageInjectFault:        o.runInjectFault,
		StageAwaitFailover:      o.runAwaitFailover,
		StageProbeDuringFailure: o.runProbeDuringFailure,
		StageRecover:            o.runRecover,
		StageAwaitStabilization: o.runAwaitStabilization,
		StageProbeAfterRecovery: o.runProbeAfterRecovery,
	}

	var haltErr error
	for _, stage := range stageOrder[:len(stageOrder)-1] {
		if err := ctx.Err(); err != nil {
			o.report.Aborted = true

			break
		}

		if err := o.executeStage(ctx, stage, stageFuncs[stage]); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.report.Aborted = true
			} else {
				haltErr = err
			}

			break
		}

		if err := o.machine.Event(ctx, EventAdvance); err != nil {
			// Transition table and stage order are built from the same
			// list; a refused advance is a programming error.
			haltErr = err

			break
		}
	}

	if o.machine.Current() != StageSummarize {
		if err := o.machine.Event(context.WithoutCancel(ctx), EventAbort); err != nil {
			o.logger.Errorf("Failed to transition to summarize: %v", err)
		}
	}
	o.summarize(haltErr)

	return o.report, haltErr
}

// executeStage runs one stage and records its result.
func (o *Orchestrator) executeStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	started := time.Now()
	o.logger.Infof("Stage %s starting", stage)

	err := fn(ctx)

	result := StageResult{
		Stage:     stage,
		Completed: err == nil,
		Started:   started,
		Elapsed:   time.Since(started),
	}
	if err != nil {
		result.Error = err.Error()
		metrics.IncErrorCount(metrics.ComponentScenario)
		o.logger.Warnw("Stage halted", "stage", stage, "error", err)
	}
	o.appendStageNotes(&result, stage)
	o.report.Stages = append(o.report.Stages, result)

	return err
}

// summarize closes the report. It renders unconditionally; an aborted or
// halted run still produces a full summary of whatever happened.
func (o *Orchestrator) summarize(haltErr error) {
	started := time.Now()

	o.report.Elapsed = time.Since(o.report.StartedAt)
	o.report.Stages = append(o.report.Stages, StageResult{
		Stage:     StageSummarize,
		Completed: true,
		Started:   started,
		Elapsed:   time.Since(started),
	})

	if haltErr != nil {
		o.logger.Warnw("Scenario halted", "runID", o.report.RunID, "error", haltErr)
	}
	o.logger.Infof("Scenario summary:\n%s", o.report.Render())
}

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
	"fmt"
	"strings"
	"time"

	"github.com/chaospg/chaospg/pkg/models"
)

// StageResult records one executed (or halted) stage.
type StageResult struct {
	Stage     string
	Completed bool
	// Error carries the flattened failure text for halted stages.
	Error   string
	Started time.Time
	Elapsed time.Duration
	// Notes carries human-oriented observations made during the stage.
	Notes []string
}

// Report is the full outcome of one scenario run. It is always produced,
// even for aborted or precondition-halted runs.
type Report struct {
	RunID       string
	TargetGroup string
	Variant     models.ArchitectureVariant
	StartedAt   time.Time
	Elapsed     time.Duration

	Stages []StageResult

	// Baseline is the snapshot the run started from, when Baseline ran.
	Baseline *models.TopologySnapshot
	// FailedNode is the node the fault was injected into.
	FailedNode string
	// NewLeader is the leader resolved after the fault, when any was.
	NewLeader *models.ResolvedLeader
	// ElectionTimedOut is true when the failover wait exhausted its budget.
	ElectionTimedOut bool
	// FailoverElapsed is the observed failover duration.
	FailoverElapsed time.Duration

	DuringFailure []models.ProbeResult
	AfterRecovery []models.ProbeResult

	// Aborted is true when the operator cancelled the run mid-flight.
	Aborted bool
}

// CompletedStages lists the names of all completed stages in order.
func (r *Report) CompletedStages() []string {
	var names []string
	for _, s := range r.Stages {
		if s.Completed {
			names = append(names, s.Stage)
		}
	}

	return names
}

// Render formats the report for the console. The excluded menu layer only
// ever prints this string; all structure stays in the Report value.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Scenario run %s\n", r.RunID)
	fmt.Fprintf(&b, "  target group:  %s\n", r.TargetGroup)
	fmt.Fprintf(&b, "  architecture:  %s\n", r.Variant)
	fmt.Fprintf(&b, "  total elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
	if r.Aborted {
		b.WriteString("  ABORTED by operator; partial results below\n")
	}

	b.WriteString("\nStages:\n")
	for _, s := range r.Stages {
		status := "ok"
		if !s.Completed {
			status = "halted"
		}
		fmt.Fprintf(&b, "  %-22s %-7s %s\n", s.Stage, status, s.Elapsed.Round(time.Millisecond))
		for _, note := range s.Notes {
			fmt.Fprintf(&b, "      - %s\n", note)
		}
		if s.Error != "" {
			fmt.Fprintf(&b, "      ! %s\n", s.Error)
		}
	}

	if r.FailedNode != "" {
		fmt.Fprintf(&b, "\nFailed node: %s\n", r.FailedNode)
	}
	switch {
	case r.NewLeader != nil && !r.ElectionTimedOut:
		fmt.Fprintf(&b, "New leader:  %s (confirmed=%t, via %s) after %s\n",
			r.NewLeader.Node.Name, r.NewLeader.Confirmed, r.NewLeader.Channel,
			r.FailoverElapsed.Round(time.Millisecond))
	case r.NewLeader != nil:
		fmt.Fprintf(&b, "Election timed out; best guess leader: %s\n", r.NewLeader.Node.Name)
	case r.ElectionTimedOut:
		b.WriteString("Election timed out; no leader candidate emerged\n")
	}

	renderProbes := func(title string, probes []models.ProbeResult) {
		if len(probes) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, p := range probes {
			fmt.Fprintf(&b, "  %-12s %-18s %s\n", p.Tier, p.Outcome, p.Latency.Round(time.Millisecond))
			if p.Error != "" {
				fmt.Fprintf(&b, "      ! %s\n", p.Error)
			}
		}
	}
	renderProbes("Probes during failure", r.DuringFailure)
	renderProbes("Probes after recovery", r.AfterRecovery)

	return b.String()
}

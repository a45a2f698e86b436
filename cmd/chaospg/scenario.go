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

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaospg/chaospg/pkg/scenario"
)

func scenarioCmd() *cobra.Command {
	var (
		targetGroup string
		targetNode  string
	)

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run a failover scenario against the cluster",
		Long: "Runs the full demonstration sequence: baseline, fault injection, " +
			"failover wait, tiered probing, recovery and summary. " +
			"Ctrl-C aborts cleanly; outstanding faults are always recovered.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, ctx, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			report, runErr := eng.RunScenario(ctx, scenario.Config{
				TargetGroup: targetGroup,
				TargetNode:  targetNode,
			})
			fmt.Print(report.Render())

			if runErr != nil && errors.Is(runErr, scenario.ErrPreconditionFailed) {
				return runErr
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&targetGroup, "group", "coordinators", "Role-set whose leader gets failed")
	cmd.Flags().StringVar(&targetNode, "node", "", "Fail this specific node instead of the observed leader")

	return cmd
}

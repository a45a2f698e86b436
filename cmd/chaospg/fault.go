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
	"fmt"

	"github.com/spf13/cobra"
)

func faultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fault",
		Short: "Manually inject or recover node faults",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inject <node>",
		Short: "Pause a node to simulate a crash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, ctx, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.InjectFault(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Fault injected into %s\n", args[0])

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recover <node>",
		Short: "Unpause a previously failed node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, ctx, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.RecoverFault(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Fault recovered on %s\n", args[0])

			return nil
		},
	})

	return cmd
}

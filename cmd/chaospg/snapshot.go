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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaospg/chaospg/pkg/models"
)

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the current cluster topology",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, ctx, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			snapshot := eng.GetSnapshot(ctx)
			fmt.Print(renderSnapshot(snapshot))

			return nil
		},
	}
}

func renderSnapshot(s *models.TopologySnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Architecture: %s (taken %s)\n", s.Variant, s.TakenAt.Format(time.RFC3339))
	if s.Variant == models.VariantNone {
		b.WriteString("No cluster is running.\n")

		return b.String()
	}

	b.WriteString("\nLeaders:\n")
	if len(s.Leaders) == 0 {
		b.WriteString("  (none resolved; cluster may be mid-election)\n")
	}
	for group, leader := range s.Leaders {
		marker := ""
		if !leader.Confirmed {
			marker = " (unconfirmed)"
		}
		fmt.Fprintf(&b, "  %-14s %s via %s%s\n", group, leader.Node.Name, leader.Channel, marker)
	}

	b.WriteString("\nNodes:\n")
	for _, st := range s.Statuses {
		state := "unreachable"
		if st.Reachable {
			state = fmt.Sprintf("%s, %s", st.Role, st.Channel)
		}
		fmt.Fprintf(&b, "  %-14s %-12s %s\n", st.Node.Name, st.Node.Group, state)
	}

	return b.String()
}

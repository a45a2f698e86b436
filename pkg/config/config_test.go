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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/models"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("declares a valid reference deployment", func() {
			cfg := config.DefaultConfig()

			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.Cluster.Nodes).To(HaveLen(7))
			Expect(cfg.Cluster.MinimalNode.Name).To(Equal("postgres-single"))
			Expect(cfg.Cluster.HAMarker).To(Equal("coordinator1"))
		})

		It("groups nodes in declaration order", func() {
			groups, order := config.DefaultConfig().Groups()

			Expect(order).To(Equal([]string{"coordinators", "workers-1", "workers-2"}))
			Expect(groups["coordinators"]).To(HaveLen(3))
			Expect(groups["workers-1"]).To(HaveLen(2))
			Expect(groups["coordinators"][0].Kind).To(Equal(models.KindCoordinator))
			Expect(groups["workers-1"][0].Kind).To(Equal(models.KindWorker))
		})
	})

	Describe("Load", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		writeFile := func(content string) string {
			path := filepath.Join(dir, "chaospg.yaml")
			Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

			return path
		}

		It("falls back to defaults when the file does not exist", func() {
			cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MetricsPort).To(Equal(8090))
		})

		It("merges file values over the defaults", func() {
			path := writeFile(`
metricsPort: 9999
timeouts:
  pollInterval: 500ms
  failoverBudget: 10s
`)

			cfg, err := config.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MetricsPort).To(Equal(9999))
			Expect(cfg.Timeouts.PollInterval).To(Equal(500 * time.Millisecond))
			Expect(cfg.Timeouts.FailoverBudget).To(Equal(10 * time.Second))
			// Untouched sections keep their defaults.
			Expect(cfg.Queries.Reference).NotTo(BeEmpty())
		})

		It("rejects unparseable YAML", func() {
			path := writeFile("metricsPort: [not a port")

			_, err := config.Load(path)

			Expect(err).To(HaveOccurred())
		})

		It("applies environment overrides after the file", func() {
			GinkgoT().Setenv("CHAOSPG_FAILOVER_BUDGET", "90s")

			cfg, err := config.Load("")

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Timeouts.FailoverBudget).To(Equal(90 * time.Second))
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
		})

		It("rejects duplicate node names", func() {
			cfg.Cluster.Nodes[1].Name = cfg.Cluster.Nodes[0].Name

			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects an invalid node kind", func() {
			cfg.Cluster.Nodes[0].Kind = "observer"

			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects an haMarker that names no declared node", func() {
			cfg.Cluster.HAMarker = "coordinator9"

			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects a failover budget below one poll interval", func() {
			cfg.Timeouts.PollInterval = 2 * time.Second
			cfg.Timeouts.FailoverBudget = time.Second

			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})

	Describe("NodeByName", func() {
		It("finds declared nodes and the minimal node", func() {
			cfg := config.DefaultConfig()

			node, ok := cfg.NodeByName("worker2b")
			Expect(ok).To(BeTrue())
			Expect(node.Group).To(Equal("workers-2"))

			single, ok := cfg.NodeByName("postgres-single")
			Expect(ok).To(BeTrue())
			Expect(single.Kind).To(Equal(models.KindCoordinator))

			_, ok = cfg.NodeByName("nope")
			Expect(ok).To(BeFalse())
		})
	})
})

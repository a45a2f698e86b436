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

package topology_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chaospg/chaospg/pkg/config"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/runtime"
	"github.com/chaospg/chaospg/pkg/topology"
)

var _ = Describe("Architecture Classifier", func() {
	var (
		rt         *runtime.MockService
		cfg        *config.Config
		classifier *topology.Classifier
		ctx        context.Context
	)

	BeforeEach(func() {
		rt = runtime.NewMockService()
		cfg = config.DefaultConfig()
		classifier = topology.NewClassifier(rt, cfg)
		ctx = context.Background()
	})

	Context("with the replicated deployment running", func() {
		It("classifies ReplicatedHA when the marker container exists", func() {
			rt.AddRunning(cfg.HAMarkerNode().Container)

			Expect(classifier.Classify(ctx)).To(Equal(models.VariantReplicatedHA))
		})

		It("prefers ReplicatedHA even when the minimal container also runs", func() {
			rt.AddRunning(cfg.HAMarkerNode().Container, cfg.Cluster.MinimalNode.Container)

			Expect(classifier.Classify(ctx)).To(Equal(models.VariantReplicatedHA))
		})
	})

	Context("with only the single-node deployment running", func() {
		It("classifies Minimal", func() {
			rt.AddRunning(cfg.Cluster.MinimalNode.Container)

			Expect(classifier.Classify(ctx)).To(Equal(models.VariantMinimal))
		})
	})

	Context("with nothing running", func() {
		It("classifies None rather than erroring", func() {
			Expect(classifier.Classify(ctx)).To(Equal(models.VariantNone))
		})
	})
})

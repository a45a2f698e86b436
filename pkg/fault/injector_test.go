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

package fault_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chaospg/chaospg/pkg/fault"
	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/service/runtime"
)

var _ = Describe("Fault Injector", func() {
	var (
		rt       *runtime.MockService
		injector *fault.Injector
		ctx      context.Context

		node = models.Node{
			Name:      "coordinator1",
			Group:     "coordinators",
			Kind:      models.KindCoordinator,
			Container: "citus-coordinator-1",
		}
	)

	BeforeEach(func() {
		rt = runtime.NewMockService()
		injector = fault.NewInjector(rt)
		ctx = context.Background()
	})

	Describe("Inject", func() {
		It("pauses a running node and records the fault", func() {
			rt.AddRunning(node.Container)

			Expect(injector.Inject(ctx, node)).To(Succeed())

			paused, _ := rt.IsPaused(ctx, node.Container)
			Expect(paused).To(BeTrue())

			record := injector.LastFault()
			Expect(record).NotTo(BeNil())
			Expect(record.NodeName).To(Equal("coordinator1"))
			Expect(record.Container).To(Equal("citus-coordinator-1"))
		})

		It("is idempotent and keeps the original injection time", func() {
			rt.AddRunning(node.Container)

			Expect(injector.Inject(ctx, node)).To(Succeed())
			first := injector.LastFault()

			Expect(injector.Inject(ctx, node)).To(Succeed())

			Expect(rt.PauseCalls[node.Container]).To(Equal(1))
			Expect(injector.LastFault().InjectedAt).To(Equal(first.InjectedAt))
		})

		It("refuses to inject into a container that is not running", func() {
			err := injector.Inject(ctx, node)

			Expect(err).To(HaveOccurred())
			Expect(rt.PauseCalls[node.Container]).To(BeZero())
			Expect(injector.LastFault()).To(BeNil())
		})
	})

	Describe("Recover", func() {
		It("unpauses a paused node and clears the fault record", func() {
			rt.AddRunning(node.Container)
			Expect(injector.Inject(ctx, node)).To(Succeed())

			Expect(injector.Recover(ctx, node)).To(Succeed())

			paused, _ := rt.IsPaused(ctx, node.Container)
			Expect(paused).To(BeFalse())
			Expect(injector.LastFault()).To(BeNil())
		})

		It("is idempotent on an already-running node", func() {
			rt.AddRunning(node.Container)
			Expect(injector.Inject(ctx, node)).To(Succeed())
			Expect(injector.Recover(ctx, node)).To(Succeed())

			Expect(injector.Recover(ctx, node)).To(Succeed())

			Expect(rt.UnpauseCalls[node.Container]).To(Equal(1))
		})

		It("leaves an unrelated fault record in place", func() {
			other := node
			other.Name = "coordinator2"
			other.Container = "citus-coordinator-2"
			rt.AddRunning(node.Container, other.Container)
			Expect(injector.Inject(ctx, other)).To(Succeed())

			Expect(injector.Recover(ctx, node)).To(Succeed())

			Expect(injector.LastFault()).NotTo(BeNil())
			Expect(injector.LastFault().NodeName).To(Equal("coordinator2"))
		})
	})

	Describe("RecoverAll", func() {
		It("resumes the outstanding fault and clears the record", func() {
			rt.AddRunning(node.Container)
			Expect(injector.Inject(ctx, node)).To(Succeed())

			Expect(injector.RecoverAll(ctx)).To(Succeed())

			paused, _ := rt.IsPaused(ctx, node.Container)
			Expect(paused).To(BeFalse())
			Expect(injector.LastFault()).To(BeNil())
		})

		It("is a no-op without an outstanding fault", func() {
			Expect(injector.RecoverAll(ctx)).To(Succeed())
			Expect(rt.UnpauseCalls).To(BeEmpty())
		})
	})
})

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

package probe_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/probe"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
	"github.com/chaospg/chaospg/pkg/service/statusapi"
)

var _ = Describe("Node Probe", func() {
	var (
		statusMock *statusapi.MockService
		dbMock     *dbclient.MockService
		prober     *probe.Prober
		ctx        context.Context

		coordinator = models.Node{
			Name:      "coordinator1",
			Group:     "coordinators",
			Kind:      models.KindCoordinator,
			Container: "citus-coordinator-1",
			StatusURL: "http://localhost:8008",
		}
		worker = models.Node{
			Name:      "worker1a",
			Group:     "workers-1",
			Kind:      models.KindWorker,
			Container: "citus-worker-1a",
		}
	)

	BeforeEach(func() {
		statusMock = statusapi.NewMockService()
		dbMock = dbclient.NewMockService()
		prober = probe.NewProber(statusMock, dbMock, probe.Timeouts{
			StatusEndpoint: 100 * time.Millisecond,
			DirectQuery:    100 * time.Millisecond,
		})
		ctx = context.Background()
	})

	Describe("Probe", func() {
		Context("when the status endpoint answers", func() {
			It("maps a leading role to Leader for coordinators", func() {
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Return(statusapi.RoleReport{Raw: "leader", Leading: true}, nil)

				status := prober.Probe(ctx, coordinator)

				Expect(status.Reachable).To(BeTrue())
				Expect(status.Ready).To(BeTrue())
				Expect(status.Role).To(Equal(models.RoleLeader))
				Expect(status.Channel).To(Equal(models.ChannelStatusEndpoint))
			})

			It("maps a non-leading role to Replica for coordinators", func() {
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Return(statusapi.RoleReport{Raw: "replica", Leading: false}, nil)

				status := prober.Probe(ctx, coordinator)

				Expect(status.Role).To(Equal(models.RoleReplica))
			})

			It("does not consult the direct-query channel", func() {
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Return(statusapi.RoleReport{Raw: "master", Leading: true}, nil)

				prober.Probe(ctx, coordinator)

				dbMock.AssertNotCalled(GinkgoT(), "IsInRecovery", mock.Anything, mock.Anything)
			})
		})

		Context("when the status endpoint is down but the database answers", func() {
			BeforeEach(func() {
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Return(statusapi.RoleReport{}, errors.New("connection refused"))
			})

			It("falls back to pg_is_in_recovery and maps false to Primary", func() {
				dbMock.On("IsInRecovery", mock.Anything, coordinator).Return(false, nil)

				status := prober.Probe(ctx, coordinator)

				Expect(status.Reachable).To(BeTrue())
				Expect(status.Role).To(Equal(models.RolePrimary))
				Expect(status.Channel).To(Equal(models.ChannelDirectQuery))
			})

			It("maps an in-recovery answer to Standby", func() {
				dbMock.On("IsInRecovery", mock.Anything, coordinator).Return(true, nil)

				status := prober.Probe(ctx, coordinator)

				Expect(status.Role).To(Equal(models.RoleStandby))
			})
		})

		Context("when the node exposes no status endpoint", func() {
			It("uses the direct-query channel exclusively", func() {
				dbMock.On("IsInRecovery", mock.Anything, worker).Return(true, nil)

				status := prober.Probe(ctx, worker)

				Expect(status.Role).To(Equal(models.RoleStandby))
				Expect(status.Channel).To(Equal(models.ChannelDirectQuery))
				statusMock.AssertNotCalled(GinkgoT(), "GetRole", mock.Anything, mock.Anything)
			})
		})

		Context("when both channels hang", func() {
			It("cuts the whole probe at the overall timeout", func() {
				capped := probe.NewProber(statusMock, dbMock, probe.Timeouts{
					StatusEndpoint: time.Second,
					DirectQuery:    time.Second,
					Probe:          50 * time.Millisecond,
				})
				block := func(args mock.Arguments) {
					reqCtx := args.Get(0).(context.Context)
					<-reqCtx.Done()
				}
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Run(block).
					Return(statusapi.RoleReport{}, errors.New("hung"))
				dbMock.On("IsInRecovery", mock.Anything, coordinator).
					Run(block).
					Return(false, errors.New("hung"))

				started := time.Now()
				status := capped.Probe(ctx, coordinator)

				Expect(time.Since(started)).To(BeNumerically("<", 500*time.Millisecond))
				Expect(status.Reachable).To(BeFalse())
				Expect(status.Channel).To(Equal(models.ChannelNone))
			})
		})

		Context("when both channels fail", func() {
			It("reports an unreachable node with Unknown role, without erroring", func() {
				statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
					Return(statusapi.RoleReport{}, errors.New("timeout"))
				dbMock.On("IsInRecovery", mock.Anything, coordinator).
					Return(false, errors.New("timeout"))

				status := prober.Probe(ctx, coordinator)

				Expect(status.Reachable).To(BeFalse())
				Expect(status.Ready).To(BeFalse())
				Expect(status.Role).To(Equal(models.RoleUnknown))
				Expect(status.Channel).To(Equal(models.ChannelNone))
			})
		})
	})

	Describe("ProbeGroup", func() {
		It("probes all candidates and preserves candidate order", func() {
			second := coordinator
			second.Name = "coordinator2"
			second.StatusURL = "http://localhost:8009"

			statusMock.On("GetRole", mock.Anything, coordinator.StatusURL).
				Return(statusapi.RoleReport{Raw: "leader", Leading: true}, nil)
			statusMock.On("GetRole", mock.Anything, second.StatusURL).
				Return(statusapi.RoleReport{Raw: "replica", Leading: false}, nil)

			statuses := prober.ProbeGroup(ctx, []models.Node{coordinator, second})

			Expect(statuses).To(HaveLen(2))
			Expect(statuses[0].Node.Name).To(Equal("coordinator1"))
			Expect(statuses[0].Role).To(Equal(models.RoleLeader))
			Expect(statuses[1].Node.Name).To(Equal("coordinator2"))
			Expect(statuses[1].Role).To(Equal(models.RoleReplica))
		})
	})
})

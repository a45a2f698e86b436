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
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/chaospg/chaospg/pkg/models"
	"github.com/chaospg/chaospg/pkg/probe"
	"github.com/chaospg/chaospg/pkg/service/dbclient"
	"github.com/chaospg/chaospg/pkg/service/statusapi"
	"github.com/chaospg/chaospg/pkg/topology"
)

var _ = Describe("Role Resolver", func() {
	var (
		statusMock *statusapi.MockService
		dbMock     *dbclient.MockService
		resolver   *topology.Resolver
		ctx        context.Context
		candidates []models.Node
	)

	node := func(name, url string) models.Node {
		return models.Node{
			Name:      name,
			Group:     "coordinators",
			Kind:      models.KindCoordinator,
			Container: "citus-" + name,
			StatusURL: url,
		}
	}

	endpointRole := func(url, raw string, leading bool) {
		statusMock.On("GetRole", mock.Anything, url).
			Return(statusapi.RoleReport{Raw: raw, Leading: leading}, nil)
	}

	endpointDown := func(url string) {
		statusMock.On("GetRole", mock.Anything, url).
			Return(statusapi.RoleReport{}, errors.New("connection refused"))
	}

	BeforeEach(func() {
		statusMock = statusapi.NewMockService()
		dbMock = dbclient.NewMockService()
		prober := probe.NewProber(statusMock, dbMock, probe.Timeouts{
			StatusEndpoint: 100 * time.Millisecond,
			DirectQuery:    100 * time.Millisecond,
		})
		resolver = topology.NewResolver(prober)
		ctx = context.Background()
		candidates = []models.Node{
			node("coordinator1", "http://localhost:8008"),
			node("coordinator2", "http://localhost:8009"),
			node("coordinator3", "http://localhost:8010"),
		}
	})

	Context("with exactly one leading candidate", func() {
		It("returns it as the confirmed leader", func() {
			endpointRole("http://localhost:8008", "leader", true)
			endpointRole("http://localhost:8009", "replica", false)
			endpointRole("http://localhost:8010", "replica", false)

			res := resolver.Resolve(ctx, candidates, topology.ResolveOptions{})

			Expect(res.Found).To(BeTrue())
			Expect(res.Leader.Node.Name).To(Equal("coordinator1"))
			Expect(res.Leader.Confirmed).To(BeTrue())
			Expect(res.Statuses).To(HaveLen(3))
		})
	})

	Context("with several leading candidates", func() {
		It("prefers the one confirmed through the status endpoint", func() {
			// coordinator1's endpoint is down and its direct query still
			// reports primary, a stale answer mid-demotion. coordinator2's
			// endpoint already claims leadership.
			endpointDown("http://localhost:8008")
			dbMock.On("IsInRecovery", mock.Anything, candidates[0]).Return(false, nil)
			endpointRole("http://localhost:8009", "leader", true)
			endpointRole("http://localhost:8010", "replica", false)

			res := resolver.Resolve(ctx, candidates, topology.ResolveOptions{})

			Expect(res.Found).To(BeTrue())
			Expect(res.Leader.Node.Name).To(Equal("coordinator2"))
			Expect(res.Leader.Channel).To(Equal(models.ChannelStatusEndpoint))
		})
	})

	Context("with no leading candidate", func() {
		It("falls back to the first reachable candidate as an unconfirmed guess", func() {
			endpointRole("http://localhost:8008", "replica", false)
			endpointRole("http://localhost:8009", "replica", false)
			endpointRole("http://localhost:8010", "replica", false)

			res := resolver.Resolve(ctx, candidates, topology.ResolveOptions{})

			Expect(res.Found).To(BeTrue())
			Expect(res.Leader.Node.Name).To(Equal("coordinator1"))
			Expect(res.Leader.Confirmed).To(BeFalse())
		})
	})

	Context("with every candidate unreachable", func() {
		It("reports no leader without erroring", func() {
			for i, url := range []string{"http://localhost:8008", "http://localhost:8009", "http://localhost:8010"} {
				endpointDown(url)
				dbMock.On("IsInRecovery", mock.Anything, candidates[i]).
					Return(false, errors.New("timeout"))
			}

			res := resolver.Resolve(ctx, candidates, topology.ResolveOptions{})

			Expect(res.Found).To(BeFalse())
			Expect(res.Statuses).To(HaveLen(3))
		})
	})

	Context("with an excluded node", func() {
		It("never probes nor returns the excluded node", func() {
			endpointRole("http://localhost:8009", "leader", true)
			endpointRole("http://localhost:8010", "replica", false)

			res := resolver.Resolve(ctx, candidates, topology.ResolveOptions{Exclude: "coordinator1"})

			Expect(res.Found).To(BeTrue())
			Expect(res.Leader.Node.Name).To(Equal("coordinator2"))
			statusMock.AssertNotCalled(GinkgoT(), "GetRole", mock.Anything, "http://localhost:8008")
		})

		It("returns an empty resolution when everyone is excluded", func() {
			res := resolver.Resolve(ctx, candidates[:1], topology.ResolveOptions{Exclude: "coordinator1"})

			Expect(res.Found).To(BeFalse())
			Expect(res.Statuses).To(BeEmpty())
		})
	})
})

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

// Package models contains the shared value types of the failover lab:
// node identity, observed node status, topology snapshots, fault records
// and query probe results. All types here are plain values; none of them
// perform I/O.
package models

import (
	"time"
)

// NodeKind distinguishes coordinator-like nodes (members of the cluster-wide
// leader set) from worker nodes (members of one sharded worker group).
type NodeKind string

const (
	KindCoordinator NodeKind = "coordinator"
	KindWorker      NodeKind = "worker"
)

// Role is the replication role of a node as observed at runtime.
// Leader/Replica are coordinator-set roles, Primary/Standby are
// worker-group roles. Node naming conventions are never trusted as a
// role source; only observed roles count.
type Role string

const (
	RoleLeader  Role = "leader"
	RoleReplica Role = "replica"
	RolePrimary Role = "primary"
	RoleStandby Role = "standby"
	RoleUnknown Role = "unknown"
)

// IsLeading reports whether the role is a write-capable leading role.
func (r Role) IsLeading() bool {
	return r == RoleLeader || r == RolePrimary
}

// DetectionChannel identifies which probe channel produced an observation.
// The status endpoint is the authoritative channel when both agree.
type DetectionChannel string

const (
	ChannelStatusEndpoint DetectionChannel = "status_endpoint"
	ChannelDirectQuery    DetectionChannel = "direct_query"
	ChannelNone           DetectionChannel = "none"
)

// Node is the static identity of one cluster member. Membership is declared
// up front; only runtime existence and role are discovered dynamically.
type Node struct {
	// Name is the stable node name, e.g. "coordinator1" or "worker1a".
	Name string
	// Group is the role-set the node belongs to, e.g. "coordinators"
	// or "workers-1".
	Group string
	// Kind is coordinator or worker.
	Kind NodeKind
	// Container is the runtime container name the node runs in.
	Container string
	// StatusURL is the node's self-reported role endpoint. Empty if the
	// node exposes none; the direct-query channel is used exclusively then.
	StatusURL string
	// DSN is the connection string for the direct database channel.
	DSN string
}

// NodeStatus is one fresh observation of one node. It is never cached
// beyond a single resolution cycle.
type NodeStatus struct {
	Node       Node
	Reachable  bool
	Ready      bool
	Role       Role
	Channel    DetectionChannel
	Latency    time.Duration
	ObservedAt time.Time
}

// IsLeading reports whether the node was observed in a leading role and
// was reachable at observation time.
func (s NodeStatus) IsLeading() bool {
	return s.Reachable && s.Role.IsLeading()
}

// ArchitectureVariant is the deployment variant derived from which node
// names are currently running.
type ArchitectureVariant string

const (
	// VariantNone means no known cluster is running.
	VariantNone ArchitectureVariant = "none"
	// VariantMinimal is a single coordinator without replicas.
	VariantMinimal ArchitectureVariant = "minimal"
	// VariantReplicatedHA is the replicated coordinator set plus
	// replicated worker groups.
	VariantReplicatedHA ArchitectureVariant = "replicated-ha"
)

// ResolvedLeader is the outcome of role resolution for one group.
type ResolvedLeader struct {
	Node Node
	// Confirmed is false when the leader is only a best guess (a merely
	// reachable candidate picked because nobody reported a leading role).
	Confirmed bool
	// Channel is the probe channel that produced the leading role.
	Channel DetectionChannel
}

// TopologySnapshot is an immutable aggregate of one classification pass and
// one role resolution per group. During a failover window a group may
// legitimately have no leader entry; callers must treat that as an expected
// state, not an error.
type TopologySnapshot struct {
	Variant ArchitectureVariant
	// Leaders maps group name to the resolved leader of that group.
	// Groups mid-election are absent.
	Leaders map[string]ResolvedLeader
	// Statuses holds every node observation that fed this snapshot.
	Statuses []NodeStatus
	TakenAt  time.Time
}

// LeaderOf returns the resolved leader of the given group, if any.
func (t *TopologySnapshot) LeaderOf(group string) (ResolvedLeader, bool) {
	leader, ok := t.Leaders[group]
	return leader, ok
}

// StatusOf returns the observation for the named node, if present.
func (t *TopologySnapshot) StatusOf(name string) (NodeStatus, bool) {
	for _, s := range t.Statuses {
		if s.Node.Name == name {
			return s, true
		}
	}

	return NodeStatus{}, false
}

// FaultRecord remembers the most recently failed node. FailoverWaiter
// consumes it to exclude that node from leader candidacy, so a node serving
// stale role data while paused is never misread as still leading.
type FaultRecord struct {
	NodeName   string
	Container  string
	InjectedAt time.Time
}

// QueryTier classifies the blast radius of a probe query.
type QueryTier string

const (
	// TierReference touches data reachable identically from any node.
	TierReference QueryTier = "reference"
	// TierSharded touches a single partitioned data segment.
	TierSharded QueryTier = "sharded"
	// TierCrossShard joins across partitioned segments.
	TierCrossShard QueryTier = "cross-shard"
)

// ProbeOutcome is the classified result of one probe query.
type ProbeOutcome string

const (
	OutcomeSuccess          ProbeOutcome = "success"
	OutcomeTransientFailure ProbeOutcome = "transient_failure"
	OutcomeHardFailure      ProbeOutcome = "hard_failure"
)

// ProbeResult is the outcome of one query tier against the current leader.
type ProbeResult struct {
	Tier    QueryTier
	Outcome ProbeOutcome
	Latency time.Duration
	// Error holds the flattened error text for failed probes.
	Error string
}

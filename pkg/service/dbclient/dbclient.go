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

// Package dbclient is the direct-query channel to individual cluster nodes.
// It answers role questions (pg_is_in_recovery) and runs the tiered probe
// queries. Connections are pooled per node; observations never are.
package dbclient

import (
	"context"

	"github.com/chaospg/chaospg/pkg/models"
)

// Service is the database channel the lab consumes.
type Service interface {
	// IsInRecovery reports whether the node is a recovery/standby instance.
	// Unreachable nodes return an error the caller classifies; they are
	// expected during fault injection.
	IsInRecovery(ctx context.Context, node models.Node) (bool, error)
	// Ping runs a trivial readiness query against the node.
	Ping(ctx context.Context, node models.Node) error
	// Query runs a probe query and returns the number of rows it yielded.
	Query(ctx context.Context, node models.Node, sql string) (int64, error)
	// Close releases all pooled connections.
	Close()
}

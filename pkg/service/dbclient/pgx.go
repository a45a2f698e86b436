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

package dbclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
	"github.com/chaospg/chaospg/pkg/models"
)

// PgxService implements Service with one small pgx pool per node. Pools are
// created lazily and never block probing: connection establishment is bounded
// by the connect timeout, and a paused node simply times out.
type PgxService struct {
	mu             sync.Mutex
	pools          map[string]*pgxpool.Pool
	connectTimeout time.Duration
	logger         *zap.SugaredLogger
}

// NewPgxService creates the pgx-backed database channel.
func NewPgxService(connectTimeout time.Duration) *PgxService {
	return &PgxService{
		pools:          make(map[string]*pgxpool.Pool),
		connectTimeout: connectTimeout,
		logger:         logger.For(logger.ComponentDBClient),
	}
}

// pool returns the cached pool for a node, creating it on first use.
func (s *PgxService) pool(node models.Node) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pools[node.Name]; ok {
		return p, nil
	}

	cfg, err := pgxpool.ParseConfig(node.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN for node %s: %w", node.Name, err)
	}

	// Probing needs at most one connection at a time per node, and a hard
	// connect timeout so an unreachable node cannot stall its group.
	cfg.MaxConns = 2
	cfg.MinConns = 0
	cfg.ConnConfig.ConnectTimeout = s.connectTimeout

	p, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool for node %s: %w", node.Name, err)
	}
	s.pools[node.Name] = p

	return p, nil
}

// IsInRecovery asks the node whether it is currently a recovery instance.
func (s *PgxService) IsInRecovery(ctx context.Context, node models.Node) (bool, error) {
	p, err := s.pool(node)
	if err != nil {
		return false, err
	}

	var inRecovery bool
	if err := p.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&inRecovery); err != nil {
		return false, fmt.Errorf("recovery query against node %s failed: %w", node.Name, err)
	}

	return inRecovery, nil
}

// Ping runs a trivial readiness query. Role promotion and query-serving
// readiness are not simultaneous, so failover completion requires this to
// pass in addition to role resolution.
func (s *PgxService) Ping(ctx context.Context, node models.Node) error {
	p, err := s.pool(node)
	if err != nil {
		return err
	}

	var one int
	if err := p.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("readiness query against node %s failed: %w", node.Name, err)
	}

	return nil
}

// Query runs a probe query and counts the rows it yields.
func (s *PgxService) Query(ctx context.Context, node models.Node, sql string) (int64, error) {
	p, err := s.pool(node)
	if err != nil {
		return 0, err
	}

	rows, err := p.Query(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("query against node %s failed: %w", node.Name, err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("query against node %s failed mid-stream: %w", node.Name, err)
	}

	return count, nil
}

// Close releases all pooled connections.
func (s *PgxService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, p := range s.pools {
		p.Close()
		delete(s.pools, name)
	}
}

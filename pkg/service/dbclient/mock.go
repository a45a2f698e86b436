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

	"github.com/stretchr/testify/mock"

	"github.com/chaospg/chaospg/pkg/models"
)

// MockService is a mock implementation of the database channel Service.
type MockService struct {
	mock.Mock
}

// NewMockService creates a new mock service instance.
func NewMockService() *MockService {
	return &MockService{}
}

// IsInRecovery is a mock implementation of Service.IsInRecovery.
func (m *MockService) IsInRecovery(ctx context.Context, node models.Node) (bool, error) {
	args := m.Called(ctx, node)

	return args.Bool(0), args.Error(1)
}

// Ping is a mock implementation of Service.Ping.
func (m *MockService) Ping(ctx context.Context, node models.Node) error {
	args := m.Called(ctx, node)

	return args.Error(0)
}

// Query is a mock implementation of Service.Query.
func (m *MockService) Query(ctx context.Context, node models.Node, sql string) (int64, error) {
	args := m.Called(ctx, node, sql)

	return args.Get(0).(int64), args.Error(1)
}

// Close is a mock implementation of Service.Close.
func (m *MockService) Close() {
	m.Called()
}

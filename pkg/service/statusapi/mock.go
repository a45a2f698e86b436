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

package statusapi

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the status endpoint Service.
type MockService struct {
	mock.Mock
}

// NewMockService creates a new mock service instance.
func NewMockService() *MockService {
	return &MockService{}
}

// GetRole is a mock implementation of Service.GetRole.
func (m *MockService) GetRole(ctx context.Context, statusURL string) (RoleReport, error) {
	args := m.Called(ctx, statusURL)

	return args.Get(0).(RoleReport), args.Error(1)
}

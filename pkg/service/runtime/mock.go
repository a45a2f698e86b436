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

package runtime

import (
	"context"
	"sync"
)

// MockService is an in-memory implementation of Service for tests. It models
// container state transitions so fault-injection idempotence can be asserted
// without a Docker daemon.
type MockService struct {
	mu sync.Mutex
	// containers maps container name to its state.
	containers map[string]*MockContainer

	// PauseCalls counts Pause invocations per container.
	PauseCalls map[string]int
	// UnpauseCalls counts Unpause invocations per container.
	UnpauseCalls map[string]int
}

// MockContainer is the simulated state of one container.
type MockContainer struct {
	Running bool
	Paused  bool
}

// NewMockService creates an empty mock runtime.
func NewMockService() *MockService {
	return &MockService{
		containers:   make(map[string]*MockContainer),
		PauseCalls:   make(map[string]int),
		UnpauseCalls: make(map[string]int),
	}
}

// AddRunning registers a running container.
func (m *MockService) AddRunning(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.containers[name] = &MockContainer{Running: true}
	}
}

// Start starts a known container.
func (m *MockService) Start(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.containers[name]
	if !ok {
		c = &MockContainer{}
		m.containers[name] = c
	}
	c.Running = true
	c.Paused = false

	return nil
}

// Pause suspends a container.
func (m *MockService) Pause(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PauseCalls[name]++
	if c, ok := m.containers[name]; ok {
		c.Paused = true
	}

	return nil
}

// Unpause resumes a container.
func (m *MockService) Unpause(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnpauseCalls[name]++
	if c, ok := m.containers[name]; ok {
		c.Paused = false
	}

	return nil
}

// IsRunning reports the simulated running state.
func (m *MockService) IsRunning(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[name]; ok {
		return c.Running, nil
	}

	return false, nil
}

// IsPaused reports the simulated paused state.
func (m *MockService) IsPaused(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[name]; ok {
		return c.Paused, nil
	}

	return false, nil
}

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

// Package runtime controls the container runtime the cluster nodes run in.
// Fault injection pauses a container (unresponsive but not destroyed) and
// recovery unpauses it; node existence checks back the architecture
// classification.
package runtime

import (
	"context"
)

// Service is the narrow container-control surface the lab consumes.
type Service interface {
	// Start starts a stopped container.
	Start(ctx context.Context, container string) error
	// Pause suspends a running container without terminating it.
	Pause(ctx context.Context, container string) error
	// Unpause resumes a paused container.
	Unpause(ctx context.Context, container string) error
	// IsRunning reports whether the container exists and is running.
	// A missing container is not an error; it reports false.
	IsRunning(ctx context.Context, container string) (bool, error)
	// IsPaused reports whether the container exists and is paused.
	IsPaused(ctx context.Context, container string) (bool, error)
}

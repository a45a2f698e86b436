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
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
)

// DockerService implements Service against the local Docker daemon.
type DockerService struct {
	cli    *client.Client
	logger *zap.SugaredLogger
}

// NewDockerService creates a Service backed by the Docker daemon addressed
// by the standard DOCKER_HOST environment.
func NewDockerService() (*DockerService, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &DockerService{
		cli:    cli,
		logger: logger.For(logger.ComponentRuntime),
	}, nil
}

// Start starts a stopped container.
func (d *DockerService) Start(ctx context.Context, name string) error {
	if err := d.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", name, err)
	}
	d.logger.Infof("Started container %s", name)

	return nil
}

// Pause suspends a running container.
func (d *DockerService) Pause(ctx context.Context, name string) error {
	if err := d.cli.ContainerPause(ctx, name); err != nil {
		return fmt.Errorf("failed to pause container %s: %w", name, err)
	}
	d.logger.Infof("Paused container %s", name)

	return nil
}

// Unpause resumes a paused container.
func (d *DockerService) Unpause(ctx context.Context, name string) error {
	if err := d.cli.ContainerUnpause(ctx, name); err != nil {
		return fmt.Errorf("failed to unpause container %s: %w", name, err)
	}
	d.logger.Infof("Unpaused container %s", name)

	return nil
}

// IsRunning reports whether the container exists and is in running state.
// Paused containers report true for Running in the Docker API, so a paused
// node still "exists" for classification purposes but IsPaused distinguishes
// it for fault bookkeeping.
func (d *DockerService) IsRunning(ctx context.Context, name string) (bool, error) {
	info, err := d.inspect(ctx, name)
	if err != nil {
		return false, err
	}
	if info == nil || info.State == nil {
		return false, nil
	}

	return info.State.Running, nil
}

// IsPaused reports whether the container exists and is paused.
func (d *DockerService) IsPaused(ctx context.Context, name string) (bool, error) {
	info, err := d.inspect(ctx, name)
	if err != nil {
		return false, err
	}
	if info == nil || info.State == nil {
		return false, nil
	}

	return info.State.Paused, nil
}

// inspect returns nil without error for missing containers.
func (d *DockerService) inspect(ctx context.Context, name string) (*container.InspectResponse, error) {
	info, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	return &info, nil
}

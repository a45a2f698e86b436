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

// Package statusapi talks to the consensus-backed role endpoint each
// coordinator-like node exposes. The endpoint is the authoritative role
// source when it answers, but it can be down independently of the database
// engine; callers fall back to the direct-query channel then.
package statusapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/chaospg/chaospg/pkg/logger"
)

// RoleReport is the parsed answer of one role endpoint request.
type RoleReport struct {
	// Raw is the role string exactly as reported.
	Raw string
	// Leading is true for leader/master/primary spellings.
	Leading bool
}

// Service is the status-endpoint channel.
type Service interface {
	// GetRole requests the node's self-reported role. The context carries
	// the per-request timeout; an unreachable endpoint is returned as an
	// error and classified by the caller, never logged as one here.
	GetRole(ctx context.Context, statusURL string) (RoleReport, error)
}

// leadingRoles are the role spellings observed across Patroni versions and
// heterogeneous response formats that all mean "write-capable leader".
var leadingRoles = map[string]bool{
	"leader":         true,
	"master":         true,
	"primary":        true,
	"standby_leader": true,
}

// roleResponse is the JSON shape of the endpoint answer. Only the role field
// is consumed; everything else in the payload is ignored.
type roleResponse struct {
	Role string `json:"role"`
}

// HTTPService implements Service over plain HTTP with a pooled transport.
type HTTPService struct {
	client *http.Client
	logger *zap.SugaredLogger
}

// NewHTTPService creates the HTTP status endpoint client. The client carries
// no default timeout; every request is bounded by its context.
func NewHTTPService() *HTTPService {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   1 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	return &HTTPService{
		client: &http.Client{Transport: transport},
		logger: logger.For(logger.ComponentStatusAPI),
	}
}

// GetRole requests and parses the role endpoint answer.
func (s *HTTPService) GetRole(ctx context.Context, statusURL string) (RoleReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return RoleReport{}, fmt.Errorf("failed to create request for %s: %w", statusURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return RoleReport{}, fmt.Errorf("status endpoint %s unreachable: %w", statusURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Debugf("Failed to close response body for %s: %v", statusURL, cerr)
		}
	}()

	// Patroni answers 200 for the leader and 503 for replicas on the root
	// endpoint; both carry a parseable role field.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return RoleReport{}, fmt.Errorf("failed to read role response from %s: %w", statusURL, err)
	}

	return ParseRole(body)
}

// ParseRole extracts and normalizes the role field from an endpoint payload.
func ParseRole(body []byte) (RoleReport, error) {
	var parsed roleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return RoleReport{}, fmt.Errorf("failed to parse role response: %w", err)
	}
	if parsed.Role == "" {
		return RoleReport{}, fmt.Errorf("role response carries no role field")
	}

	role := strings.ToLower(strings.TrimSpace(parsed.Role))

	return RoleReport{Raw: role, Leading: leadingRoles[role]}, nil
}

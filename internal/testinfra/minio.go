// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinioImage is the S3-compatible object store used for
	// integration tests
	DefaultMinioImage = "minio/minio:latest"

	// DefaultMinioPort is the S3 API port inside the container
	DefaultMinioPort = "9000/tcp"

	// MinioAccessKey and MinioSecretKey are the root credentials
	MinioAccessKey = "snapvault"
	MinioSecretKey = "snapvault-secret"
)

// MinioContainer represents a running MinIO container for testing.
type MinioContainer struct {
	testcontainers.Container
	Endpoint string
}

// NewMinioContainer creates and starts a MinIO server. Buckets must be
// created by the test.
func NewMinioContainer(ctx context.Context) (*MinioContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultMinioImage,
		ExposedPorts: []string{DefaultMinioPort},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     MinioAccessKey,
			"MINIO_ROOT_PASSWORD": MinioSecretKey,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort(DefaultMinioPort).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	addr, err := endpoint(ctx, container, DefaultMinioPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &MinioContainer{
		Container: container,
		Endpoint:  "http://" + addr,
	}, nil
}

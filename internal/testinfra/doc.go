// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # PostgreSQL Container
//
// PostgresContainer runs a disposable business database. Tests create the
// tenant tables they need and point database.New at pg.URL:
//
//	func TestFetchTable(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    // ...
//	}
//
// # MinIO Container
//
// MinioContainer provides an S3-compatible endpoint for the offsite mirror.
//
// # CI Considerations
//
// All files in this package carry the integration build tag. Run with:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
package testinfra

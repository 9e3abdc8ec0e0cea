// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
Package middleware provides HTTP middleware components for the management API.

Key Components:

  - Request ID: UUID-based request tracking, populating the logging context
    with request_id and correlation_id
  - Prometheus Metrics: request count, duration and in-flight gauge, labeled
    by the matched chi route pattern so path parameters do not create new
    series

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware

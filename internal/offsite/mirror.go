// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

// Package offsite mirrors committed snapshots to S3-compatible object storage.
//
// The mirror is best effort: the local snapshot tree stays authoritative and
// an upload failure never fails a backup run. Objects are keyed
// <prefix>/<sanitized-tenant-name>/<file-name>, mirroring the local layout,
// and are never deleted by local retention.
package offsite

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/tomtom215/snapvault/internal/backup"
	"github.com/tomtom215/snapvault/internal/config"
	"github.com/tomtom215/snapvault/internal/logging"
	"github.com/tomtom215/snapvault/internal/metrics"
)

// ObjectAPI is the subset of the S3 client used by the mirror
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Mirror uploads snapshot files to one bucket
type S3Mirror struct {
	client  ObjectAPI
	bucket  string
	prefix  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewS3Client returns an S3 client for the configured endpoint. Static
// credentials are used when set; otherwise requests are anonymous.
func NewS3Client(cfg *config.OffsiteConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(opts)
}

// New creates a mirror using the given client
func New(client ObjectAPI, cfg *config.OffsiteConfig) *S3Mirror {
	return &S3Mirror{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		timeout: cfg.UploadTimeout,
		logger:  logging.WithComponent("offsite"),
	}
}

// ObjectKey returns the key a snapshot is stored under
func (m *S3Mirror) ObjectKey(tenantName, filePath string) string {
	parts := []string{backup.SanitizeName(tenantName), filepath.Base(filePath)}
	if m.prefix != "" {
		parts = append([]string{m.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Upload copies one snapshot file to the bucket
func (m *S3Mirror) Upload(ctx context.Context, tenantName, filePath string) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.OffsiteUploadsTotal.WithLabelValues(outcome).Inc()
	}()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	f, err := os.Open(filePath) //nolint:gosec // path produced by the executor under the backup root
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	key := m.ObjectKey(tenantName, filePath)
	start := time.Now()
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		m.logger.Warn().
			Str("bucket", m.bucket).
			Str("key", key).
			Str("code", errorCode(err)).
			Msg("Offsite upload rejected")
		return fmt.Errorf("put object %s: %w", key, err)
	}

	m.logger.Info().
		Str("bucket", m.bucket).
		Str("key", key).
		Int64("size", info.Size()).
		Dur("duration", time.Since(start)).
		Msg("Snapshot mirrored offsite")
	return nil
}

// Check verifies that the bucket exists and is reachable
func (m *S3Mirror) Check(ctx context.Context) error {
	if _, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s (%s): %w", m.bucket, errorCode(err), err)
	}
	return nil
}

// errorCode returns the S3 service error code, or "unknown" for transport
// failures
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "unknown"
}

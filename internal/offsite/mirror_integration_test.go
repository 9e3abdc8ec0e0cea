// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

//go:build integration

package offsite

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/snapvault/internal/config"
	"github.com/tomtom215/snapvault/internal/testinfra"
)

func TestS3Mirror_Minio(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	minio, err := testinfra.NewMinioContainer(ctx)
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, minio)

	cfg := &config.OffsiteConfig{
		Enabled:         true,
		Bucket:          "tenant-snapshots",
		Region:          "us-east-1",
		Endpoint:        minio.Endpoint,
		AccessKeyID:     testinfra.MinioAccessKey,
		SecretAccessKey: testinfra.MinioSecretKey,
		Prefix:          "snapshots",
		UsePathStyle:    true,
		UploadTimeout:   30 * time.Second,
	}
	client := NewS3Client(cfg)
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		t.Fatalf("create bucket: %v", err)
	}

	m := New(client, cfg)
	if err := m.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	path := writeSnapshotFile(t, `{"tenantId":"7"}`)
	if err := m.Upload(ctx, "Acme S.A.", path); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(m.ObjectKey("Acme S.A.", path)),
	})
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer out.Body.Close()
	body, _ := io.ReadAll(out.Body)
	if string(body) != `{"tenantId":"7"}` {
		t.Errorf("object body = %s", body)
	}
}

// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

//go:build integration

package testinfra

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// TestMinIOContainer_Integration tests the MinIO container lifecycle.
func TestMinIOContainer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	minio, err := NewMinIOContainer(ctx, WithBuckets("testinfra"))
	if err != nil {
		t.Fatalf("Failed to create MinIO container: %v", err)
	}
	defer CleanupContainer(t, ctx, minio.Container)

	client, err := minio.Client(ctx)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		t.Fatalf("ListBuckets() error = %v\n%s", err, ContainerLogs(ctx, minio.Container))
	}
	found := false
	for _, b := range out.Buckets {
		if aws.ToString(b.Name) == "testinfra" {
			found = true
		}
	}
	if !found {
		t.Error("bucket testinfra was not created")
	}
}

// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// so the S3 code path is exercised against a real S3 API rather than a mock.
//
// # MinIO Container
//
// The MinIOContainer runs a MinIO server and can pre-create buckets:
//
//	func TestS3RoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    minio, err := testinfra.NewMinIOContainer(ctx, testinfra.WithBuckets("lake"))
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	    store, err := objstore.NewS3Store(ctx, "lake", "sparkify", config.AWSConfig{
//	        Region:          minio.Region,
//	        AccessKeyID:     minio.AccessKey,
//	        SecretAccessKey: minio.SecretKey,
//	        EndpointURL:     minio.Endpoint,
//	        ForcePathStyle:  true,
//	    })
//	    // ...
//	}
//
// # CI Considerations
//
// All files carry the integration build tag and run with:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
package testinfra

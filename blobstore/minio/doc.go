// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible services such as Ceph,
// SeaweedFS and Garage, without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "my-bucket", "matrices/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = archive.Fetch(ctx, rc, store, "sim.smx", "/data/sim.smx")
package minio

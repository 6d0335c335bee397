// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("matrices/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	_, err = archive.Publish(ctx, rc, "sim.smx", store, "sim.smx")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums for large matrix files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3

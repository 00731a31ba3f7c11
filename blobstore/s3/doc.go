// Package s3 provides an S3 implementation of the blobstore.BlobStore
// interface, for deployments that keep .bfg_colors files and their JSON
// manifests in object storage instead of (or alongside) local disk.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(s3.NewFromConfig(cfg), "my-bucket", "graphs/")
//
//	cs, err := ccdbg.NewColorStorage(graph, ccdbg.WithKmerLength(k))
//	err = cs.LoadFromBlobStore(ctx, store, "chr1.bfg_colors")
//
// # Features
//
//   - Range reads for efficient partial fetches of large color files
//   - Streaming multipart uploads for graphs too large for a single PUT
//   - CRC32C integrity validation on writes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-build isolation inside a shared bucket
package s3

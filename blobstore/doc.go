// Package blobstore is the storage abstraction for featmap matrices and run
// manifests.
//
// BlobStore reads and writes named, immutable blobs. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, mmap reads, atomic temp-file writes
//   - MemoryStore: in-process map, for tests and dry runs
//   - CachingStore: keeps local copies of blobs read from a remote store
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with a DynamoDB
//     commit pointer for CURRENT
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Remote backends should implement Blob.ReadRange with a single ranged GET;
// ReadAll uses it to fetch a whole blob in one request.
package blobstore

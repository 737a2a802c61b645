// Package s3 stores featmap datasets in Amazon S3.
//
// # Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "cohorts/2026/")
//	err := dataset.Save(ctx, store, "x.fmcs", x)
//
// Store reads lazily with ranged GETs and writes through the multipart
// uploader with CRC32C checksums. Wrap it in blobstore.NewCachingStore to
// keep local copies of matrices that are read repeatedly.
//
// ExpressStore adds conditional creates (If-None-Match) and DDBCommitStore
// keeps the CURRENT pointer in DynamoDB, so concurrent publishers into the
// same prefix detect each other.
package s3

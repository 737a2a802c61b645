package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/featmap/blobstore"
	minioblob "github.com/hupe1980/featmap/blobstore/minio"
	s3blob "github.com/hupe1980/featmap/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore builds the blob store named by cfg.URI.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	store, remote, err := openBaseStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if remote && cfg.CacheDir != "" {
		store = blobstore.NewCachingStore(store, blobstore.NewLocalStore(cfg.CacheDir))
	}
	return store, nil
}

func openBaseStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, bool, error) {
	uri := cfg.URI
	if uri == "" {
		uri = "."
	}
	if !strings.Contains(uri, "://") {
		return blobstore.NewLocalStore(uri), false, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, false, fmt.Errorf("store uri: %w", err)
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), false, nil
	case "mem":
		return blobstore.NewMemoryStore(), false, nil
	case "s3":
		s, err := openS3(ctx, u.Host, prefix, cfg)
		return s, true, err
	case "minio":
		s, err := openMinIO(u.Host, prefix, cfg)
		return s, true, err
	default:
		return nil, false, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func openS3(ctx context.Context, bucket, prefix string, cfg StoreConfig) (blobstore.BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 store uri needs a bucket")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg)

	if cfg.Express {
		return s3blob.NewExpressStore(client, bucket, prefix), nil
	}
	store := s3blob.NewStore(client, bucket, prefix)
	if cfg.DDBTable != "" {
		return s3blob.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DDBTable, s3blob.BaseURI(store)), nil
	}
	return store, nil
}

// openMinIO reads credentials from MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
func openMinIO(endpoint, rest string, cfg StoreConfig) (blobstore.BlobStore, error) {
	bucket, prefix, _ := strings.Cut(rest, "/")
	if endpoint == "" || bucket == "" {
		return nil, fmt.Errorf("minio store uri needs host and bucket")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: cfg.MinIOSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return minioblob.NewStore(client, bucket, prefix), nil
}

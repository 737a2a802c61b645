package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/featmap/blobstore"
)

// ExpressStore is a Store for S3 Express One Zone directory buckets
// (names ending in --x-s3), and for general purpose buckets that honor
// conditional writes.
//
// It adds PutIfNotExists through If-None-Match, so run manifests are never
// overwritten by a second writer choosing the same run id.
type ExpressStore struct {
	*Store
}

// NewExpressStore creates a new S3 Express One Zone blob store.
func NewExpressStore(client Client, bucket, rootPrefix string, optFns ...Option) *ExpressStore {
	return &ExpressStore{Store: NewStore(client, bucket, rootPrefix, optFns...)}
}

// PutIfNotExists writes a blob only if the key is free.
// It returns an error wrapping blobstore.ErrExists otherwise.
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	err := putWithChecksum(ctx, s.client, s.bucket, s.key(name), data, aws.String("*"))
	if isConditionFailure(err) {
		return fmt.Errorf("%s: %w", name, blobstore.ErrExists)
	}
	return err
}

func isConditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

var _ blobstore.ConditionalPutter = (*ExpressStore)(nil)

package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/singleflight"
)

// CurrentName is the name of the mutable pointer blob that names the most
// recently published run.
const CurrentName = "CURRENT"

// CachingStore wraps a remote BlobStore and keeps whole-blob copies of
// everything it reads in a LocalStore. Later opens are served from the
// local copy through mmap.
//
// Only immutable blobs may be cached; CURRENT is always read through.
type CachingStore struct {
	inner  BlobStore
	local  *LocalStore
	cache  func(name string) bool
	flight singleflight.Group
}

// CachingOption configures a CachingStore.
type CachingOption func(*CachingStore)

// WithCacheFilter restricts caching to names for which keep returns true.
// CURRENT is never cached regardless of keep.
func WithCacheFilter(keep func(name string) bool) CachingOption {
	return func(s *CachingStore) {
		s.cache = keep
	}
}

// NewCachingStore creates a CachingStore.
func NewCachingStore(inner BlobStore, local *LocalStore, optFns ...CachingOption) *CachingStore {
	s := &CachingStore{
		inner: inner,
		local: local,
		cache: func(string) bool { return true },
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

func (s *CachingStore) cacheable(name string) bool {
	return name != CurrentName && s.cache(name)
}

// Open serves name from the local copy, fetching it first on a miss.
// Concurrent misses for the same name share one download.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if !s.cacheable(name) {
		return s.inner.Open(ctx, name)
	}

	b, err := s.local.Open(ctx, name)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err, _ = s.flight.Do(name, func() (any, error) {
		return nil, s.fill(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return s.local.Open(ctx, name)
}

// fill copies name from the inner store into the local store.
func (s *CachingStore) fill(ctx context.Context, name string) error {
	src, err := s.inner.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close()

	rc, err := src.ReadRange(ctx, 0, src.Size())
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer rc.Close()

	dst, err := s.local.Create(ctx, name)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, rc)
	if err == nil && n != src.Size() {
		err = fmt.Errorf("fetch %s: got %d of %d bytes", name, n, src.Size())
	}
	if err != nil {
		_ = Abort(dst)
		return err
	}
	return dst.Close()
}

// Create writes through to the inner store and drops any local copy.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := s.local.Delete(ctx, name); err != nil {
		return nil, err
	}
	return s.inner.Create(ctx, name)
}

// Put writes through to the inner store and drops any local copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.local.Delete(ctx, name); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// PutIfNotExists forwards to the inner store. Local copies are never stale
// for a name that did not exist.
func (s *CachingStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	return PutIfNotExists(ctx, s.inner, name, data)
}

// Delete removes name from both stores.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	if err := s.local.Delete(ctx, name); err != nil {
		return err
	}
	return s.inner.Delete(ctx, name)
}

// List lists the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

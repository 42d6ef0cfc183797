package blobstore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a BlobStore with a read-through blob cache. Concurrent
// Gets of the same uncached blob are coalesced into a single backend fetch.
//
// The cache is unbounded: it suits backends with a small number of large
// snapshots, not arbitrary blob churn. Put and Delete invalidate the cached
// entry before hitting the backend.
type CachingStore struct {
	inner BlobStore
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(inner BlobStore) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: make(map[string][]byte),
	}
}

// Get reads a blob in full, serving repeated reads from the cache.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.cache[name]
	s.mu.RUnlock()

	if ok {
		return data, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := s.inner.Get(ctx, name)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cache[name] = data
		s.mu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Put writes a blob and invalidates its cached entry.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob and invalidates its cached entry.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the backend.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.group.Forget(name)

	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

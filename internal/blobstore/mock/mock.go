// Package mock provides an in-memory blob store for tests.
package mock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
)

// Object is a stored blob with its upload attributes.
type Object struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// Store is an in-memory implementation of blobstore.Store
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object

	// Error injection, keyed by object key
	PutErrors    map[string]error
	DeleteErrors map[string]error
	PresignError error

	// Deleted records every key passed to Delete, in order
	Deleted []string
}

var _ blobstore.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		objects:      make(map[string]Object),
		PutErrors:    make(map[string]error),
		DeleteErrors: make(map[string]error),
	}
}

// Object returns a stored object
func (m *Store) Object(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys returns all stored keys, sorted
func (m *Store) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}

func (m *Store) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.PutErrors[key]; err != nil {
		return err
	}
	m.objects[key] = Object{Body: slices.Clone(body), ContentType: contentType, Metadata: maps.Clone(metadata)}
	return nil
}

func (m *Store) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, asset.ErrNotFound)
	}
	return slices.Clone(obj.Body), nil
}

func (m *Store) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, key)
	if err := m.DeleteErrors[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}

func (m *Store) PresignPost(_ context.Context, key, contentTypePrefix string, expiry time.Duration) (*blobstore.PresignedPost, error) {
	if m.PresignError != nil {
		return nil, m.PresignError
	}
	return &blobstore.PresignedPost{
		URL: "https://mock-bucket.s3.amazonaws.com/",
		Fields: map[string]string{
			"key":          key,
			"acl":          "public-read",
			"Content-Type": contentTypePrefix,
			"expires-in":   fmt.Sprintf("%d", int(expiry.Seconds())),
		},
	}, nil
}

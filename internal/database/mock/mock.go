// Package mock provides mock implementations of database interfaces for testing.
// The in-memory store also backs DATABASE_DRIVER=memory for local development.
package mock

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/database"
)

// AssetStore is an in-memory implementation of database.AssetStore
type AssetStore struct {
	mu      sync.RWMutex
	records map[string]asset.Record

	// Error injection
	GetError    error
	PutError    error
	DeleteError error
	ScanError   error
	CountError  error

	// Call counters
	PutCalls    int
	DeleteCalls int
}

var _ database.AssetStore = (*AssetStore)(nil)

// NewAssetStore creates a new empty in-memory store
func NewAssetStore() *AssetStore {
	return &AssetStore{
		records: make(map[string]asset.Record),
	}
}

// AddRecord seeds a record without touching call counters
func (m *AssetStore) AddRecord(rec asset.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec = rec.Clone()
	rec.Normalize()
	m.records[rec.ID] = rec
}

// Records returns a copy of every stored record, sorted by ID
func (m *AssetStore) Records() []asset.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]asset.Record, 0, len(m.records))
	for _, id := range slices.Sorted(maps.Keys(m.records)) {
		out = append(out, m.records[id].Clone())
	}
	return out
}

// Get retrieves a record by asset ID
func (m *AssetStore) Get(ctx context.Context, id string) (*asset.Record, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, asset.ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

// Put upserts a record
func (m *AssetStore) Put(ctx context.Context, rec *asset.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	stored := rec.Clone()
	stored.Normalize()
	m.records[stored.ID] = stored
	return nil
}

// Delete removes a record
func (m *AssetStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.records, id)
	return nil
}

// Scan yields records in ID order. IDs are snapshotted when iteration starts,
// each record is read at the time it is yielded.
func (m *AssetStore) Scan(ctx context.Context) iter.Seq2[asset.Record, error] {
	return func(yield func(asset.Record, error) bool) {
		if m.ScanError != nil {
			yield(asset.Record{}, m.ScanError)
			return
		}
		m.mu.RLock()
		ids := slices.Sorted(maps.Keys(m.records))
		m.mu.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(asset.Record{}, err)
				return
			}
			m.mu.RLock()
			rec, ok := m.records[id]
			m.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(rec.Clone(), nil) {
				return
			}
		}
	}
}

// Count returns the number of stored records
func (m *AssetStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

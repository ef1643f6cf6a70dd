package database

import (
	"context"
	"iter"

	"github.com/kozaktomas/bird-tagger/internal/asset"
)

// AssetReader provides read-only access to asset records
type AssetReader interface {
	// Get retrieves a record by asset ID, returns asset.ErrNotFound if absent
	Get(ctx context.Context, id string) (*asset.Record, error)
	// Scan lazily yields every stored record. Each call starts a fresh scan;
	// writes made while a scan is running may or may not be observed.
	Scan(ctx context.Context) iter.Seq2[asset.Record, error]
	// Count returns the total number of records stored
	Count(ctx context.Context) (int, error)
}

// AssetWriter provides write access to asset records
type AssetWriter interface {
	AssetReader

	// Put upserts a record, replacing any existing record with the same ID (last writer wins)
	Put(ctx context.Context, rec *asset.Record) error
	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error
}

// AssetStore is the full record store contract shared by every backend.
type AssetStore = AssetWriter

// SpeciesScanner is implemented by backends that can pre-filter a scan to
// records carrying every given species. Callers must still apply their own
// predicate; the pre-filter only narrows the candidates.
type SpeciesScanner interface {
	ScanSpecies(ctx context.Context, species []string) iter.Seq2[asset.Record, error]
}

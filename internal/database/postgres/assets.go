package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/database"
	"github.com/lib/pq"
)

// AssetRepository provides PostgreSQL-backed record storage
type AssetRepository struct {
	pool     *Pool
	pageSize int
}

var (
	_ database.AssetStore     = (*AssetRepository)(nil)
	_ database.SpeciesScanner = (*AssetRepository)(nil)
)

// NewAssetRepository creates a new PostgreSQL asset repository
func NewAssetRepository(pool *Pool) *AssetRepository {
	return &AssetRepository{pool: pool, pageSize: constants.DefaultPageSize}
}

const assetColumns = "asset_id, kind, annotations, original_location, thumbnail_location"

func scanAsset(row interface{ Scan(...any) error }) (asset.Record, error) {
	var (
		id, kind, original string
		annotations        []byte
		thumbnail          sql.NullString
	)
	if err := row.Scan(&id, &kind, &annotations, &original, &thumbnail); err != nil {
		return asset.Record{}, err
	}
	return database.DecodeRow(id, kind, annotations, original, thumbnail)
}

// Get retrieves a record by asset ID
func (r *AssetRepository) Get(ctx context.Context, id string) (*asset.Record, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+assetColumns+" FROM assets WHERE asset_id = $1", id)
	rec, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", id, asset.ErrNotFound)
	}
	if err != nil {
		return nil, database.StoreError("get asset", err)
	}
	return &rec, nil
}

// Put upserts a record
func (r *AssetRepository) Put(ctx context.Context, rec *asset.Record) error {
	stored := rec.Clone()
	stored.Normalize()

	annotations, err := database.EncodeAnnotations(stored.Annotations)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO assets (asset_id, kind, annotations, original_location, thumbnail_location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			annotations = EXCLUDED.annotations,
			original_location = EXCLUDED.original_location,
			thumbnail_location = EXCLUDED.thumbnail_location,
			updated_at = NOW()
	`, stored.ID, string(stored.Kind), annotations, stored.OriginalLocation, database.NullableThumbnail(&stored))
	if err != nil {
		return database.StoreError("put asset", err)
	}
	return nil
}

// Delete removes a record
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM assets WHERE asset_id = $1", id); err != nil {
		return database.StoreError("delete asset", err)
	}
	return nil
}

// Count returns the total number of records stored
func (r *AssetRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM assets").Scan(&count); err != nil {
		return 0, database.StoreError("count assets", err)
	}
	return count, nil
}

// Scan yields every record ordered by asset ID. Records are fetched in
// keyset-paginated pages so no connection is held while the caller consumes them.
func (r *AssetRepository) Scan(ctx context.Context) iter.Seq2[asset.Record, error] {
	return r.scanPages(ctx, nil)
}

// ScanSpecies yields records whose annotations contain every species key.
func (r *AssetRepository) ScanSpecies(ctx context.Context, species []string) iter.Seq2[asset.Record, error] {
	return r.scanPages(ctx, asset.CanonicalSet(species))
}

func (r *AssetRepository) scanPages(ctx context.Context, species []string) iter.Seq2[asset.Record, error] {
	return func(yield func(asset.Record, error) bool) {
		after := ""
		for {
			page, err := r.page(ctx, after, species)
			if err != nil {
				yield(asset.Record{}, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			after = page[len(page)-1].ID
		}
	}
}

func (r *AssetRepository) page(ctx context.Context, after string, species []string) ([]asset.Record, error) {
	query := "SELECT " + assetColumns + " FROM assets WHERE asset_id > $1"
	args := []any{after}
	if len(species) > 0 {
		query += " AND annotations ?& $3"
		args = append(args, r.pageSize, pq.Array(species))
	} else {
		args = append(args, r.pageSize)
	}
	query += " ORDER BY asset_id LIMIT $2"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.StoreError("scan assets", err)
	}
	defer rows.Close()

	records := make([]asset.Record, 0, r.pageSize)
	for rows.Next() {
		rec, err := scanAsset(rows)
		if err != nil {
			return nil, database.StoreError("scan asset row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError("iterate assets", err)
	}
	return records, nil
}

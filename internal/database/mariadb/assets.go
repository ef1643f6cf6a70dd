package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/database"
)

// AssetRepository stores asset records in MariaDB with annotations in a JSON column.
type AssetRepository struct {
	pool     *Pool
	pageSize int
}

var _ database.AssetStore = (*AssetRepository)(nil)

func NewAssetRepository(pool *Pool) *AssetRepository {
	return &AssetRepository{pool: pool, pageSize: constants.DefaultPageSize}
}

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

func (r *AssetRepository) Get(ctx context.Context, id string) (*asset.Record, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT asset_id, kind, annotations, original_location, thumbnail_location FROM assets WHERE asset_id = ?`, id)
	rec, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", id, asset.ErrNotFound)
	}
	if err != nil {
		return nil, database.StoreError("get asset", err)
	}
	return &rec, nil
}

func (r *AssetRepository) Put(ctx context.Context, rec *asset.Record) error {
	stored := rec.Clone()
	stored.Normalize()

	annotations, err := database.EncodeAnnotations(stored.Annotations)
	if err != nil {
		return err
	}

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO assets (asset_id, kind, annotations, original_location, thumbnail_location)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			kind = VALUES(kind),
			annotations = VALUES(annotations),
			original_location = VALUES(original_location),
			thumbnail_location = VALUES(thumbnail_location)
	`, stored.ID, string(stored.Kind), annotations, stored.OriginalLocation, database.NullableThumbnail(&stored))
	if err != nil {
		return database.StoreError("put asset", err)
	}
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.db.ExecContext(ctx, `DELETE FROM assets WHERE asset_id = ?`, id); err != nil {
		return database.StoreError("delete asset", err)
	}
	return nil
}

func (r *AssetRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count); err != nil {
		return 0, database.StoreError("count assets", err)
	}
	return count, nil
}

// Scan yields every record ordered by asset ID, one page at a time.
func (r *AssetRepository) Scan(ctx context.Context) iter.Seq2[asset.Record, error] {
	return func(yield func(asset.Record, error) bool) {
		after := ""
		for {
			page, err := r.page(ctx, after)
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

func (r *AssetRepository) page(ctx context.Context, after string) ([]asset.Record, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT asset_id, kind, annotations, original_location, thumbnail_location
		FROM assets WHERE asset_id > ? ORDER BY asset_id LIMIT ?
	`, after, r.pageSize)
	if err != nil {
		return nil, database.StoreError("scan assets", err)
	}
	defer rows.Close()

	var records []asset.Record
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

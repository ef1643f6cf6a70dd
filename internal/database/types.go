package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/asset"
)

// StoreError wraps a backend failure so callers can match it with asset.ErrStore.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, asset.ErrStore, err)
}

// EncodeAnnotations serializes annotations for a JSON column.
func EncodeAnnotations(a asset.Annotations) ([]byte, error) {
	if a == nil {
		a = asset.Annotations{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal annotations: %w", err)
	}
	return data, nil
}

// DecodeRow builds a normalized record from the columns every SQL backend stores.
func DecodeRow(id, kind string, annotations []byte, original string, thumbnail sql.NullString) (asset.Record, error) {
	k, ok := asset.ParseKind(kind)
	if !ok {
		return asset.Record{}, fmt.Errorf("asset %s: unknown kind %q", id, kind)
	}

	var ann asset.Annotations
	if len(annotations) > 0 {
		if err := json.Unmarshal(annotations, &ann); err != nil {
			return asset.Record{}, fmt.Errorf("asset %s: unmarshal annotations: %w", id, err)
		}
	}

	rec := asset.Record{
		ID:                id,
		Kind:              k,
		Annotations:       ann,
		OriginalLocation:  original,
		ThumbnailLocation: thumbnail.String,
	}
	rec.Normalize()
	return rec, nil
}

// NullableThumbnail maps an empty thumbnail location to SQL NULL.
func NullableThumbnail(rec *asset.Record) sql.NullString {
	return sql.NullString{String: rec.ThumbnailLocation, Valid: rec.ThumbnailLocation != ""}
}

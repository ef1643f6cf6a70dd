// Package tagging implements ingestion, retrieval, bulk tag mutation and
// deletion of asset records. Every operation reads and writes through the
// record store and keeps no state between calls.
package tagging

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/asset"
)

// ItemFailure explains why one item of a batch was skipped.
type ItemFailure struct {
	URL     string `json:"url"`
	AssetID string `json:"file_id,omitempty"`
	Reason  string `json:"reason"`
}

// Diagnostics accumulates per-item failures of a batch call.
type Diagnostics []ItemFailure

func (d *Diagnostics) add(url, id, reason string) {
	*d = append(*d, ItemFailure{URL: url, AssetID: id, Reason: reason})
}

// Failure reasons reported in diagnostics.
const (
	ReasonUnresolvable    = "url does not refer to an asset in this bucket"
	ReasonNotFound        = "no record for asset"
	ReasonThumbnailURL    = "thumbnail urls cannot be deleted directly"
	ReasonBlobDelete      = "failed to delete object"
	ReasonThumbnailDelete = "failed to delete thumbnail"
)

// storeFailure marks err as a record store failure unless it already is one.
func storeFailure(op string, err error) error {
	if errors.Is(err, asset.ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, asset.ErrStore, err)
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", asset.ErrValidation, fmt.Sprintf(format, args...))
}

package tagging

import (
	"context"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
	"github.com/kozaktomas/bird-tagger/internal/database"
	"github.com/kozaktomas/bird-tagger/internal/logger"
)

// DeletionResult lists the assets removed by a bulk deletion.
type DeletionResult struct {
	Deleted  []string    `json:"deleted_files"`
	Failures Diagnostics `json:"failures"`
}

// Deleter removes assets, their thumbnails and their records.
type Deleter struct {
	store   database.AssetWriter
	blobs   blobstore.Store
	locator asset.Locator
	log     *logger.Logger
}

func NewDeleter(store database.AssetWriter, blobs blobstore.Store, locator asset.Locator, log *logger.Logger) *Deleter {
	return &Deleter{store: store, blobs: blobs, locator: locator, log: log}
}

// Delete processes each URL independently: delete the object, then for images
// the conventional thumbnail object, then the record. A failed object delete
// skips the item; a failed thumbnail delete is only reported.
func (d *Deleter) Delete(ctx context.Context, urls []string) (*DeletionResult, error) {
	if len(urls) == 0 {
		return nil, validation("urls list is required")
	}

	result := &DeletionResult{Deleted: []string{}, Failures: Diagnostics{}}
	for _, url := range urls {
		key, ok := d.locator.Key(url)
		if !ok {
			result.Failures.add(url, "", ReasonUnresolvable)
			continue
		}
		if asset.IsThumbnailKey(key) {
			result.Failures.add(url, key, ReasonThumbnailURL)
			continue
		}

		if err := d.blobs.Delete(ctx, key); err != nil {
			d.log.Warn("failed to delete object", "key", key, "error", err)
			result.Failures.add(url, key, ReasonBlobDelete)
			continue
		}

		if kind, _ := asset.KindFromName(key); kind == asset.KindImage {
			thumb := asset.ThumbnailKey(key)
			if err := d.blobs.Delete(ctx, thumb); err != nil {
				d.log.Warn("failed to delete thumbnail", "key", thumb, "error", err)
				result.Failures.add(url, key, ReasonThumbnailDelete)
			}
		}

		if err := d.store.Delete(ctx, key); err != nil {
			return nil, storeFailure("delete asset", err)
		}
		result.Deleted = append(result.Deleted, key)
	}
	return result, nil
}

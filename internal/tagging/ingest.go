package tagging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/blobstore"
	"github.com/kozaktomas/bird-tagger/internal/database"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/media"
	"github.com/kozaktomas/bird-tagger/internal/notify"
)

// PipelineConfig holds ingestion tunables.
type PipelineConfig struct {
	MinConfidence  float64
	ThumbnailWidth int
}

// Pipeline detects birds in stored media and writes the resulting records.
type Pipeline struct {
	store    database.AssetWriter
	blobs    blobstore.Store
	detector *ai.Detector
	notifier notify.Notifier // nil disables alerts
	locator  asset.Locator
	cfg      PipelineConfig
	log      *logger.Logger
}

func NewPipeline(
	store database.AssetWriter,
	blobs blobstore.Store,
	detector *ai.Detector,
	notifier notify.Notifier,
	locator asset.Locator,
	cfg PipelineConfig,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		store:    store,
		blobs:    blobs,
		detector: detector,
		notifier: notifier,
		locator:  locator,
		cfg:      cfg,
		log:      log,
	}
}

// IngestRequest identifies the media to ingest. Data or Path may carry the
// content; otherwise it is read from the blob store under Key.
type IngestRequest struct {
	Key          string
	ThumbnailKey string
	Data         []byte
	Path         string
	// GenerateThumbnail creates thumbnails/<name> for images ingested without one.
	GenerateThumbnail bool
}

// Ingest runs detection for one asset and upserts its record. Re-ingesting
// the same key replaces the previous record. Media that cannot be opened or
// decoded fails with asset.ErrDecode and nothing is written.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*asset.Record, error) {
	key := strings.TrimPrefix(strings.TrimSpace(req.Key), "/")
	if key == "" {
		return nil, validation("key is required")
	}
	if asset.IsThumbnailKey(key) {
		return nil, validation("thumbnails are derived artifacts and cannot be ingested: %q", key)
	}
	kind, ok := asset.KindFromName(key)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", asset.ErrValidation, asset.ErrUnsupportedKind, key)
	}

	thumbnailKey := ""
	var annotations asset.Annotations
	switch kind {
	case asset.KindImage:
		data, err := p.load(ctx, key, req)
		if err != nil {
			return nil, err
		}
		annotations, err = p.detector.CountImage(ctx, data, p.cfg.MinConfidence)
		if err != nil {
			return nil, fmt.Errorf("detect %s: %w", key, err)
		}
		thumbnailKey = req.ThumbnailKey
		if thumbnailKey == "" && req.GenerateThumbnail {
			if thumbnailKey, err = p.storeThumbnail(ctx, key, data); err != nil {
				return nil, err
			}
		}

	case asset.KindVideo:
		var err error
		if req.Path != "" {
			annotations, err = p.detector.CountVideo(ctx, req.Path, p.cfg.MinConfidence)
		} else {
			var data []byte
			if data, err = p.load(ctx, key, req); err != nil {
				return nil, err
			}
			annotations, err = p.detector.CountVideoData(ctx, data, asset.Extension(key), p.cfg.MinConfidence)
		}
		if err != nil {
			return nil, fmt.Errorf("detect %s: %w", key, err)
		}

	case asset.KindAudio:
		// No classifier for audio; counts only come from manual tagging.
		annotations = asset.Annotations{}
	}

	rec := &asset.Record{
		ID:               key,
		Kind:             kind,
		Annotations:      annotations,
		OriginalLocation: p.locator.StorageURI(key),
	}
	if thumbnailKey != "" {
		rec.ThumbnailLocation = p.locator.StorageURI(thumbnailKey)
	}
	rec.Normalize()

	if err := p.store.Put(ctx, rec); err != nil {
		return nil, storeFailure("put asset", err)
	}
	p.log.Info("asset ingested", "key", key, "kind", kind, "species", rec.Annotations.Species())

	p.notify(ctx, rec)
	return rec, nil
}

// load returns the media bytes for a request. Missing objects wrap asset.ErrDecode.
func (p *Pipeline) load(ctx context.Context, key string, req IngestRequest) ([]byte, error) {
	if req.Data != nil {
		return req.Data, nil
	}
	if req.Path != "" {
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", asset.ErrDecode, req.Path, err)
		}
		return data, nil
	}
	data, err := p.blobs.Get(ctx, key)
	if errors.Is(err, asset.ErrNotFound) {
		return nil, fmt.Errorf("%w: open %s: %w", asset.ErrDecode, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (p *Pipeline) storeThumbnail(ctx context.Context, key string, data []byte) (string, error) {
	thumb, err := media.Thumbnail(data, p.cfg.ThumbnailWidth)
	if err != nil {
		return "", fmt.Errorf("thumbnail %s: %w", key, err)
	}
	thumbKey := asset.ThumbnailKey(key)
	if err := p.blobs.Put(ctx, thumbKey, thumb, "image/jpeg", nil); err != nil {
		return "", fmt.Errorf("store thumbnail %s: %w", thumbKey, err)
	}
	return thumbKey, nil
}

// notify publishes one alert per detected species. Failures are logged only.
func (p *Pipeline) notify(ctx context.Context, rec *asset.Record) {
	if p.notifier == nil {
		return
	}
	link := p.locator.HTTPS(rec.OriginalLocation)
	for _, species := range rec.Annotations.Species() {
		count := rec.Annotations[species]
		subject := fmt.Sprintf("New %s detection", species)
		message := fmt.Sprintf("%d %s detected in %s\n\n%s", count, species, strings.ToLower(string(rec.Kind)), link)
		if err := p.notifier.Publish(ctx, species, subject, message); err != nil {
			p.log.Warn("failed to publish detection", "species", species, "key", rec.ID, "error", err)
		}
	}
}

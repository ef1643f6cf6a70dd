package tagging

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/database"
)

// Engine answers searches over the record store. Each search is a full scan
// filtered in memory, so cost grows with the number of stored records.
type Engine struct {
	store             database.AssetReader
	detector          *ai.Detector
	locator           asset.Locator
	contentConfidence float64
}

func NewEngine(store database.AssetReader, detector *ai.Detector, locator asset.Locator, contentConfidence float64) *Engine {
	return &Engine{
		store:             store,
		detector:          detector,
		locator:           locator,
		contentConfidence: contentConfidence,
	}
}

// ContentResult is the outcome of a search by file content.
type ContentResult struct {
	Species      []string `json:"detected_species"`
	Links        []string `json:"links"`
	NoDetections bool     `json:"no_detections"`
}

// scan returns the candidates for a search. Backends able to pre-filter by
// species do so; the caller's predicate is applied either way.
func (e *Engine) scan(ctx context.Context, species []string) iter.Seq2[asset.Record, error] {
	if ss, ok := e.store.(database.SpeciesScanner); ok && len(species) > 0 {
		return ss.ScanSpecies(ctx, species)
	}
	return e.store.Scan(ctx)
}

// collect returns display URLs of matching records in scan order.
func (e *Engine) collect(ctx context.Context, species []string, match func(asset.Record) bool) ([]string, error) {
	links := []string{}
	for rec, err := range e.scan(ctx, species) {
		if err != nil {
			return nil, storeFailure("scan assets", err)
		}
		if !match(rec) {
			continue
		}
		if link, ok := e.locator.DisplayURL(rec); ok {
			links = append(links, link)
		}
	}
	return links, nil
}

// SearchByTags returns assets holding at least the required count of every
// species. An empty requirement set matches nothing.
func (e *Engine) SearchByTags(ctx context.Context, requirements map[string]int64) ([]string, error) {
	required := make(map[string]int64, len(requirements))
	for species, count := range requirements {
		name := asset.CanonicalSpecies(species)
		if name == "" {
			return nil, validation("empty species name")
		}
		required[name] = count
	}
	if len(required) == 0 {
		return []string{}, nil
	}

	species := make([]string, 0, len(required))
	for name := range required {
		species = append(species, name)
	}

	return e.collect(ctx, species, func(rec asset.Record) bool {
		for name, want := range required {
			count, ok := rec.Annotations[name]
			if !ok || count < want {
				return false
			}
		}
		return true
	})
}

// SearchBySpecies returns assets with at least one detection of species.
func (e *Engine) SearchBySpecies(ctx context.Context, species string) ([]string, error) {
	name := asset.CanonicalSpecies(species)
	if name == "" {
		return nil, validation("species is required")
	}
	return e.collect(ctx, []string{name}, func(rec asset.Record) bool {
		return rec.Annotations.Has(name)
	})
}

// ResolveThumbnail maps a thumbnail location to the original location of its
// image. It fails with asset.ErrNotFound when no record exists.
func (e *Engine) ResolveThumbnail(ctx context.Context, thumbnailURL string) (string, error) {
	key, ok := e.locator.Key(thumbnailURL)
	if !ok || !asset.IsThumbnailKey(key) {
		return "", validation("not a thumbnail url: %q", thumbnailURL)
	}
	id, ok := asset.OriginalKeyForThumbnail(key)
	if !ok {
		return "", validation("not a thumbnail url: %q", thumbnailURL)
	}

	rec, err := e.store.Get(ctx, id)
	if errors.Is(err, asset.ErrNotFound) {
		return "", fmt.Errorf("original of %s: %w", thumbnailURL, asset.ErrNotFound)
	}
	if err != nil {
		return "", storeFailure("get asset", err)
	}
	return rec.OriginalLocation, nil
}

// DetectSpecies runs detection on a query file and returns the species present.
// The file kind is taken from the filename extension.
func (e *Engine) DetectSpecies(ctx context.Context, filename string, data []byte) ([]string, error) {
	kind, ok := asset.KindFromName(filename)
	if !ok {
		return nil, validation("unsupported file type: %q", filename)
	}

	var (
		counts asset.Annotations
		err    error
	)
	switch kind {
	case asset.KindImage:
		counts, err = e.detector.CountImage(ctx, data, e.contentConfidence)
	case asset.KindVideo:
		counts, err = e.detector.CountVideoData(ctx, data, asset.Extension(filename), e.contentConfidence)
	default:
		return nil, validation("content search is not available for %s files", kind)
	}
	if err != nil {
		return nil, err
	}
	return counts.Species(), nil
}

// SearchByContent detects species in a query file and returns assets whose
// annotations include every detected species.
func (e *Engine) SearchByContent(ctx context.Context, filename string, data []byte) (*ContentResult, error) {
	species, err := e.DetectSpecies(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if len(species) == 0 {
		return &ContentResult{Species: []string{}, Links: []string{}, NoDetections: true}, nil
	}

	links, err := e.collect(ctx, species, func(rec asset.Record) bool {
		return rec.Annotations.ContainsAll(species)
	})
	if err != nil {
		return nil, err
	}
	return &ContentResult{Species: species, Links: links}, nil
}

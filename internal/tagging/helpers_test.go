package tagging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	blobmock "github.com/kozaktomas/bird-tagger/internal/blobstore/mock"
	"github.com/kozaktomas/bird-tagger/internal/database/mock"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	notifymock "github.com/kozaktomas/bird-tagger/internal/notify/mock"
)

var testLocator = asset.Locator{Bucket: "birds", Region: "us-east-1"}

// stubClassifier returns the same detections for every input.
type stubClassifier struct {
	mu         sync.Mutex
	detections []ai.Detection
	calls      int
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(context.Context, []byte) ([]ai.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.detections, nil
}

func detections(species string, n int) []ai.Detection {
	out := make([]ai.Detection, n)
	for i := range out {
		out[i] = ai.Detection{Species: species, Confidence: 0.9}
	}
	return out
}

// scriptedFrames serves frame i as a single-byte payload and reports a fixed count.
type scriptedFrames struct{ count int }

func (f scriptedFrames) FrameCount(context.Context, string) (int, error) { return f.count, nil }

func (f scriptedFrames) Frame(_ context.Context, _ string, index int) ([]byte, error) {
	return []byte{byte(index)}, nil
}

// frameClassifier returns detections by frame index (the single payload byte).
type frameClassifier struct {
	perFrame map[int][]ai.Detection
}

func (f frameClassifier) Name() string { return "frames" }

func (f frameClassifier) Classify(_ context.Context, frame []byte) ([]ai.Detection, error) {
	return f.perFrame[int(frame[0])], nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	store    *mock.AssetStore
	blobs    *blobmock.Store
	notifier *notifymock.Notifier
}

func newFixture() *fixture {
	return &fixture{
		store:    mock.NewAssetStore(),
		blobs:    blobmock.NewStore(),
		notifier: notifymock.NewNotifier(),
	}
}

func (f *fixture) pipeline(clf ai.Classifier, frames ai.FrameSource) *Pipeline {
	return NewPipeline(f.store, f.blobs, ai.NewDetector(clf, frames), f.notifier, testLocator,
		PipelineConfig{ThumbnailWidth: 64}, logger.Nop())
}

func (f *fixture) engine(clf ai.Classifier) *Engine {
	return NewEngine(f.store, ai.NewDetector(clf, scriptedFrames{count: 10}), testLocator, 0.5)
}

func imageRecord(id string, thumbnail bool, ann asset.Annotations) asset.Record {
	rec := asset.Record{
		ID:               id,
		Kind:             asset.KindImage,
		Annotations:      ann,
		OriginalLocation: testLocator.StorageURI(id),
	}
	if thumbnail {
		rec.ThumbnailLocation = testLocator.StorageURI(asset.ThumbnailKey(id))
	}
	return rec
}

func videoRecord(id string, ann asset.Annotations) asset.Record {
	return asset.Record{
		ID:               id,
		Kind:             asset.KindVideo,
		Annotations:      ann,
		OriginalLocation: testLocator.StorageURI(id),
	}
}

func thumbURL(id string) string {
	return "https://birds.s3.us-east-1.amazonaws.com/" + asset.ThumbnailKey(id)
}

func originalURL(id string) string {
	return "https://birds.s3.us-east-1.amazonaws.com/" + id
}

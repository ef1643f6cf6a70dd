package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	blobmock "github.com/kozaktomas/bird-tagger/internal/blobstore/mock"
	"github.com/kozaktomas/bird-tagger/internal/database/mock"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	notifymock "github.com/kozaktomas/bird-tagger/internal/notify/mock"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

var testLocator = asset.Locator{Bucket: "birds", Region: "us-east-1"}

// fixedClassifier reports the same birds for every image.
type fixedClassifier struct {
	detections []ai.Detection
}

func (c fixedClassifier) Name() string { return "fixed" }

func (c fixedClassifier) Classify(context.Context, []byte) ([]ai.Detection, error) {
	return c.detections, nil
}

// noFrames is a frame source for tests that never touch video.
type noFrames struct{}

func (noFrames) FrameCount(context.Context, string) (int, error) { return 0, nil }
func (noFrames) Frame(context.Context, string, int) ([]byte, error) { return nil, nil }

// testEnv bundles the in-memory backends handlers run against.
type testEnv struct {
	store    *mock.AssetStore
	blobs    *blobmock.Store
	notifier *notifymock.Notifier
	detector *ai.Detector
}

func newTestEnv(birds ...ai.Detection) *testEnv {
	return &testEnv{
		store:    mock.NewAssetStore(),
		blobs:    blobmock.NewStore(),
		notifier: notifymock.NewNotifier(),
		detector: ai.NewDetector(fixedClassifier{detections: birds}, noFrames{}),
	}
}

func (e *testEnv) engine() *tagging.Engine {
	return tagging.NewEngine(e.store, e.detector, testLocator, 0.5)
}

func (e *testEnv) pipeline() *tagging.Pipeline {
	return tagging.NewPipeline(e.store, e.blobs, e.detector, e.notifier, testLocator,
		tagging.PipelineConfig{ThumbnailWidth: 32}, logger.Nop())
}

func (e *testEnv) addImage(id string, ann asset.Annotations) {
	e.store.AddRecord(asset.Record{
		ID:                id,
		Kind:              asset.KindImage,
		Annotations:       ann,
		OriginalLocation:  testLocator.StorageURI(id),
		ThumbnailLocation: testLocator.StorageURI(asset.ThumbnailKey(id)),
	})
}

func bird(species string) ai.Detection {
	return ai.Detection{Species: species, Confidence: 0.9}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

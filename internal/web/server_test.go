package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	blobmock "github.com/kozaktomas/bird-tagger/internal/blobstore/mock"
	"github.com/kozaktomas/bird-tagger/internal/config"
	"github.com/kozaktomas/bird-tagger/internal/database/mock"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

type silentClassifier struct{}

func (silentClassifier) Name() string { return "silent" }
func (silentClassifier) Classify(context.Context, []byte) ([]ai.Detection, error) { return nil, nil }

func newTestServer(t *testing.T) *Server {
	return newTestServerWithReady(t, nil)
}

func newTestServerWithReady(t *testing.T, ready func(context.Context) error) *Server {
	t.Helper()
	locator := asset.Locator{Bucket: "birds", Region: "us-east-1"}
	store := mock.NewAssetStore()
	store.AddRecord(asset.Record{
		ID:                "images/a.jpg",
		Kind:              asset.KindImage,
		Annotations:       asset.Annotations{"Crow": 2},
		OriginalLocation:  "s3://birds/images/a.jpg",
		ThumbnailLocation: "s3://birds/thumbnails/a.jpg",
	})
	blobs := blobmock.NewStore()
	detector := ai.NewDetector(silentClassifier{}, ai.NewFFmpegFrames("ffmpeg", "ffprobe"))
	log := logger.Nop()

	return NewServer(&config.WebConfig{Host: "127.0.0.1", Port: 0}, Services{
		Engine:   tagging.NewEngine(store, detector, locator, 0.5),
		Mutator:  tagging.NewMutator(store, locator),
		Deleter:  tagging.NewDeleter(store, blobs, locator, log),
		Pipeline: tagging.NewPipeline(store, blobs, detector, nil, locator, tagging.PipelineConfig{ThumbnailWidth: 256}, log),
		Locator:  locator,
		Catalog:  []string{"crow"},
		Ready:    ready,
	}, log)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/species", "", http.StatusOK},
		{http.MethodGet, "/api/v1/search/tags?tag1=crow&count1=2", "", http.StatusOK},
		{http.MethodGet, "/api/v1/search/species?species=crow", "", http.StatusOK},
		{http.MethodGet, "/api/v1/search/thumbnail?thumbnail_url=s3://birds/thumbnails/a.jpg", "", http.StatusOK},
		{http.MethodPost, "/api/v1/tags", `{"url":["s3://birds/images/a.jpg"],"operation":1,"tags":["owl,1"]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/subscriptions", `{"email":"a@b.com","species":"crow"}`, http.StatusServiceUnavailable},
		{http.MethodDelete, "/api/v1/files", `{"urls":["s3://birds/images/a.jpg"]}`, http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/tags", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()

			s.Router().ServeHTTP(recorder, req)

			if recorder.Code != tc.status {
				t.Errorf("expected %d, got %d\nBody: %s", tc.status, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestRoutes_SecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	recorder := httptest.NewRecorder()

	s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if got := recorder.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff header, got %q", got)
	}
}

func TestRoutes_HealthReportsStoreOutage(t *testing.T) {
	s := newTestServerWithReady(t, func(context.Context) error { return errors.New("dial tcp: connection refused") })
	recorder := httptest.NewRecorder()

	s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", recorder.Code)
	}
}

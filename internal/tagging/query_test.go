package tagging

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/ai"
	"github.com/kozaktomas/bird-tagger/internal/asset"
)

func TestSearchByTags(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 3, "Sparrow": 1}))
	f.store.AddRecord(imageRecord("images/b.jpg", true, asset.Annotations{"Crow": 1}))
	f.store.AddRecord(videoRecord("video/c.mp4", asset.Annotations{"Crow": 2, "Owl": 1}))
	e := f.engine(&stubClassifier{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]int64
		want []string
	}{
		{"threshold met", map[string]int64{"Crow": 2}, []string{thumbURL("images/a.jpg"), originalURL("video/c.mp4")}},
		{"case insensitive", map[string]int64{"crow": 3}, []string{thumbURL("images/a.jpg")}},
		{"conjunction", map[string]int64{"crow": 2, "owl": 1}, []string{originalURL("video/c.mp4")}},
		{"absent species never matches", map[string]int64{"Myna": 1}, []string{}},
		{"empty requirements", map[string]int64{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.SearchByTags(ctx, tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSearchBySpecies(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Owl": 1}))
	f.store.AddRecord(imageRecord("images/b.jpg", true, asset.Annotations{"Crow": 1}))
	e := f.engine(&stubClassifier{})

	got, err := e.SearchBySpecies(context.Background(), "OWL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{thumbURL("images/a.jpg")}) {
		t.Errorf("unexpected result %v", got)
	}

	if _, err := e.SearchBySpecies(context.Background(), "  "); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSearch_ImageWithoutThumbnailExcluded(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/nothumb.jpg", false, asset.Annotations{"Crow": 5}))
	e := f.engine(&stubClassifier{detections: detections("crow", 1)})
	ctx := context.Background()

	if got, _ := e.SearchByTags(ctx, map[string]int64{"Crow": 1}); len(got) != 0 {
		t.Errorf("tag search: expected exclusion, got %v", got)
	}
	if got, _ := e.SearchBySpecies(ctx, "crow"); len(got) != 0 {
		t.Errorf("species search: expected exclusion, got %v", got)
	}
	res, err := e.SearchByContent(ctx, "q.png", pngBytes(t, 4, 4))
	if err != nil {
		t.Fatalf("content search: %v", err)
	}
	if len(res.Links) != 0 {
		t.Errorf("content search: expected exclusion, got %v", res.Links)
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.ScanError = errors.New("connection reset")
	e := f.engine(&stubClassifier{})

	if _, err := e.SearchByTags(context.Background(), map[string]int64{"Crow": 1}); !errors.Is(err, asset.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}

func TestResolveThumbnail(t *testing.T) {
	f := newFixture()
	rec := imageRecord("images/pigeon_2.jpg", true, asset.Annotations{"Pigeon": 2})
	f.store.AddRecord(rec)
	e := f.engine(&stubClassifier{})
	ctx := context.Background()

	// Round trip from the thumbnail location in either form.
	for _, in := range []string{rec.ThumbnailLocation, thumbURL(rec.ID)} {
		got, err := e.ResolveThumbnail(ctx, in)
		if err != nil {
			t.Fatalf("ResolveThumbnail(%q): %v", in, err)
		}
		if got != rec.OriginalLocation {
			t.Errorf("expected %s, got %s", rec.OriginalLocation, got)
		}
	}

	if _, err := e.ResolveThumbnail(ctx, "s3://birds/thumbnails/missing.jpg"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.ResolveThumbnail(ctx, "s3://birds/images/pigeon_2.jpg"); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error for non-thumbnail url, got %v", err)
	}
	if _, err := e.ResolveThumbnail(ctx, "s3://other/thumbnails/pigeon_2.jpg"); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error for foreign bucket, got %v", err)
	}
}

func TestSearchByContent_Superset(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/both.jpg", true, asset.Annotations{"Crow": 1, "Owl": 2}))
	f.store.AddRecord(imageRecord("images/owl.jpg", true, asset.Annotations{"Owl": 2}))
	e := f.engine(&stubClassifier{detections: detections("crow", 4)})

	res, err := e.SearchByContent(context.Background(), "query.png", pngBytes(t, 4, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Species, []string{"Crow"}) {
		t.Errorf("expected detected species [Crow], got %v", res.Species)
	}
	if !slices.Equal(res.Links, []string{thumbURL("images/both.jpg")}) {
		t.Errorf("expected only the superset candidate, got %v", res.Links)
	}
	if res.NoDetections {
		t.Error("expected detections")
	}
}

func TestSearchByContent_ConfidenceThreshold(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	clf := &stubClassifier{detections: []ai.Detection{{Species: "crow", Confidence: 0.5}}}
	e := f.engine(clf)

	res, err := e.SearchByContent(context.Background(), "q.jpg", pngBytes(t, 4, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NoDetections || len(res.Links) != 0 {
		t.Errorf("expected detections at exactly 0.5 to be ignored, got %+v", res)
	}
}

func TestSearchByContent_NoDetections(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	e := f.engine(&stubClassifier{})

	res, err := e.SearchByContent(context.Background(), "empty.png", pngBytes(t, 4, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NoDetections {
		t.Error("expected NoDetections signal")
	}
	if res.Links == nil || len(res.Links) != 0 {
		t.Errorf("expected empty non-nil links, got %v", res.Links)
	}
}

func TestSearchByContent_Errors(t *testing.T) {
	e := newFixture().engine(&stubClassifier{})
	ctx := context.Background()

	if _, err := e.SearchByContent(ctx, "broken.jpg", []byte("not an image")); !errors.Is(err, asset.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if _, err := e.SearchByContent(ctx, "song.mp3", []byte("ID3")); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error for audio, got %v", err)
	}
	if _, err := e.SearchByContent(ctx, "notes.txt", []byte("x")); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error for unknown type, got %v", err)
	}
}

func TestSearchByContent_Video(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(videoRecord("video/a.mp4", asset.Annotations{"Myna": 1, "Crow": 1}))
	f.store.AddRecord(videoRecord("video/b.mp4", asset.Annotations{"Myna": 1}))
	clf := frameClassifier{perFrame: map[int][]ai.Detection{
		2: detections("myna", 1),
		7: detections("crow", 2),
	}}
	e := f.engine(clf)

	res, err := e.SearchByContent(context.Background(), "clip.MOV", []byte("video bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Species, []string{"Crow", "Myna"}) {
		t.Errorf("expected species from all frames, got %v", res.Species)
	}
	if !slices.Equal(res.Links, []string{originalURL("video/a.mp4")}) {
		t.Errorf("unexpected links %v", res.Links)
	}
}

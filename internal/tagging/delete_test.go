package tagging

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/logger"
)

func TestDelete_ImageRemovesThumbnailAndRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	_ = f.blobs.Put(ctx, "images/a.jpg", []byte("orig"), "image/jpeg", nil)
	_ = f.blobs.Put(ctx, "thumbnails/a.jpg", []byte("thumb"), "image/jpeg", nil)
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	res, err := d.Delete(ctx, []string{originalURL("images/a.jpg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Deleted, []string{"images/a.jpg"}) {
		t.Errorf("unexpected deleted list %v", res.Deleted)
	}
	if len(f.blobs.Keys()) != 0 {
		t.Errorf("expected all objects gone, got %v", f.blobs.Keys())
	}
	if _, err := f.store.Get(ctx, "images/a.jpg"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("expected record removed, got %v", err)
	}
}

func TestDelete_VideoSkipsThumbnail(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(videoRecord("video/v.mp4", asset.Annotations{"Owl": 1}))
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	if _, err := d.Delete(context.Background(), []string{"s3://birds/video/v.mp4"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(f.blobs.Deleted, []string{"video/v.mp4"}) {
		t.Errorf("expected only the video object deleted, got %v", f.blobs.Deleted)
	}
}

func TestDelete_ThumbnailURLRejected(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	res, err := d.Delete(context.Background(), []string{thumbURL("images/a.jpg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Deleted) != 0 || len(res.Failures) != 1 || res.Failures[0].Reason != ReasonThumbnailURL {
		t.Errorf("unexpected result %+v", res)
	}
	if len(f.blobs.Deleted) != 0 || f.store.DeleteCalls != 0 {
		t.Error("expected nothing to be deleted")
	}
}

func TestDelete_BlobFailureSkipsItem(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, nil))
	f.store.AddRecord(imageRecord("images/b.jpg", true, nil))
	f.blobs.DeleteErrors["images/a.jpg"] = errors.New("access denied")
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	res, err := d.Delete(context.Background(), []string{originalURL("images/a.jpg"), originalURL("images/b.jpg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Deleted, []string{"images/b.jpg"}) {
		t.Errorf("unexpected deleted list %v", res.Deleted)
	}
	if len(res.Failures) != 1 || res.Failures[0].Reason != ReasonBlobDelete {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
	if _, err := f.store.Get(context.Background(), "images/a.jpg"); err != nil {
		t.Errorf("expected record of failed item to remain, got %v", err)
	}
}

func TestDelete_ThumbnailFailureReported(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, nil))
	f.blobs.DeleteErrors["thumbnails/a.jpg"] = errors.New("throttled")
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	res, err := d.Delete(context.Background(), []string{originalURL("images/a.jpg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Deleted, []string{"images/a.jpg"}) {
		t.Errorf("expected deletion to proceed, got %v", res.Deleted)
	}
	if len(res.Failures) != 1 || res.Failures[0].Reason != ReasonThumbnailDelete {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
}

func TestDelete_Errors(t *testing.T) {
	f := newFixture()
	d := NewDeleter(f.store, f.blobs, testLocator, logger.Nop())

	if _, err := d.Delete(context.Background(), nil); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	f.store.DeleteError = errors.New("connection refused")
	if _, err := d.Delete(context.Background(), []string{originalURL("video/v.mp4")}); !errors.Is(err, asset.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}

package tagging

import (
	"context"
	"errors"
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/kozaktomas/bird-tagger/internal/asset"
)

func TestParseOperation(t *testing.T) {
	if op, err := ParseOperation(1); err != nil || op != OperationAdd {
		t.Errorf("expected add, got %v %v", op, err)
	}
	if op, err := ParseOperation(0); err != nil || op != OperationRemove {
		t.Errorf("expected remove, got %v %v", op, err)
	}
	if _, err := ParseOperation(2); !errors.Is(err, asset.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApply_Add(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	m := NewMutator(f.store, testLocator)

	res, err := m.Apply(context.Background(), []string{thumbURL("images/a.jpg")}, OperationAdd, []string{"crow,2", "Owl,1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Updated, []string{"images/a.jpg"}) {
		t.Errorf("unexpected updated list %v", res.Updated)
	}

	rec, _ := f.store.Get(context.Background(), "images/a.jpg")
	want := asset.Annotations{"Crow": 3, "Owl": 1}
	if !maps.Equal(rec.Annotations, want) {
		t.Errorf("expected %v, got %v", want, rec.Annotations)
	}
	if rec.ThumbnailLocation == "" {
		t.Error("expected thumbnail location to survive mutation")
	}
}

func TestApply_RemoveFloorsAtZero(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(videoRecord("video/v.mp4", asset.Annotations{"Owl": 2, "Crow": 4}))
	m := NewMutator(f.store, testLocator)

	_, err := m.Apply(context.Background(), []string{"s3://birds/video/v.mp4"}, OperationRemove, []string{"owl,3", "crow,1", "myna,1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _ := f.store.Get(context.Background(), "video/v.mp4")
	want := asset.Annotations{"Crow": 3}
	if !maps.Equal(rec.Annotations, want) {
		t.Errorf("expected %v, got %v", want, rec.Annotations)
	}
}

func TestApply_AddSaturatesAtMaxCount(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 5}))
	m := NewMutator(f.store, testLocator)

	res, err := m.Apply(context.Background(), []string{"s3://birds/images/a.jpg"}, OperationAdd, []string{"crow,9223372036854775807"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Updated) != 1 {
		t.Fatalf("expected one update, got %v", res.Updated)
	}

	rec, _ := f.store.Get(context.Background(), "images/a.jpg")
	if got := rec.Annotations["Crow"]; got != math.MaxInt64 {
		t.Errorf("expected Crow to saturate at %d, got %v", int64(math.MaxInt64), rec.Annotations)
	}
}

func TestApply_PartialSuccess(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	m := NewMutator(f.store, testLocator)

	urls := []string{
		thumbURL("images/a.jpg"),
		thumbURL("images/missing.jpg"),
		"https://example.com/images/a.jpg",
	}
	res, err := m.Apply(context.Background(), urls, OperationAdd, []string{"crow,1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Updated, []string{"images/a.jpg"}) {
		t.Errorf("expected exactly one updated asset, got %v", res.Updated)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", res.Failures)
	}
	if res.Failures[0].Reason != ReasonNotFound || res.Failures[0].AssetID != "images/missing.jpg" {
		t.Errorf("unexpected first failure %+v", res.Failures[0])
	}
	if res.Failures[1].Reason != ReasonUnresolvable {
		t.Errorf("unexpected second failure %+v", res.Failures[1])
	}
	if f.store.PutCalls != 1 {
		t.Errorf("expected 1 put, got %d", f.store.PutCalls)
	}
}

func TestApply_ValidationRejectsWholeBatch(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	m := NewMutator(f.store, testLocator)
	ctx := context.Background()
	urls := []string{thumbURL("images/a.jpg")}

	tests := []struct {
		name string
		urls []string
		op   Operation
		tags []string
	}{
		{"no urls", nil, OperationAdd, []string{"crow,1"}},
		{"no tags", urls, OperationAdd, nil},
		{"bad tag", urls, OperationAdd, []string{"crow,1", "owl"}},
		{"zero count", urls, OperationRemove, []string{"crow,0"}},
		{"bad operation", urls, Operation(5), []string{"crow,1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Apply(ctx, tt.urls, tt.op, tt.tags); !errors.Is(err, asset.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if f.store.PutCalls != 0 {
		t.Errorf("expected no writes, got %d", f.store.PutCalls)
	}
}

func TestApply_StoreFailureAborts(t *testing.T) {
	f := newFixture()
	f.store.AddRecord(imageRecord("images/a.jpg", true, asset.Annotations{"Crow": 1}))
	f.store.PutError = errors.New("disk full")
	m := NewMutator(f.store, testLocator)

	_, err := m.Apply(context.Background(), []string{thumbURL("images/a.jpg")}, OperationAdd, []string{"crow,1"})
	if !errors.Is(err, asset.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}

	f.store.PutError = nil
	f.store.GetError = errors.New("timeout")
	_, err = m.Apply(context.Background(), []string{thumbURL("images/a.jpg")}, OperationAdd, []string{"crow,1"})
	if !errors.Is(err, asset.ErrStore) {
		t.Errorf("expected ErrStore from get, got %v", err)
	}
}

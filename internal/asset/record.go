// Package asset holds the record model shared by every component: one record per
// stored media file, keyed by its storage path, carrying species annotations.
package asset

import (
	"maps"
	"math"
	"path"
	"slices"
	"strings"
)

// Kind is the media category of an asset, derived from its file extension.
type Kind string

const (
	KindImage Kind = "IMAGE"
	KindVideo Kind = "VIDEO"
	KindAudio Kind = "AUDIO"
)

var extensionKinds = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"gif":  KindImage,
	"mp4":  KindVideo,
	"avi":  KindVideo,
	"mov":  KindVideo,
	"mp3":  KindAudio,
	"wav":  KindAudio,
	"flac": KindAudio,
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// KindFromName determines the asset kind from a file name or storage key.
// The second return value is false for unsupported extensions.
func KindFromName(name string) (Kind, bool) {
	k, ok := extensionKinds[Extension(name)]
	return k, ok
}

// ParseKind parses a stored kind value. Legacy rows that stored the raw
// extension (JPG, MP4, ...) are mapped onto their category.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToUpper(s)); k {
	case KindImage, KindVideo, KindAudio:
		return k, true
	}
	return KindFromName("x." + s)
}

// Annotations maps canonical species names to detected instance counts.
// A species that is absent has zero detections; stored counts are always positive.
type Annotations map[string]int64

// Count returns the count for species, zero when absent.
func (a Annotations) Count(species string) int64 {
	return a[CanonicalSpecies(species)]
}

// Has reports whether species has at least one detection.
func (a Annotations) Has(species string) bool {
	return a.Count(species) > 0
}

// Species returns the sorted species names present.
func (a Annotations) Species() []string {
	return slices.Sorted(maps.Keys(a))
}

// ContainsAll reports whether every species in set is present.
func (a Annotations) ContainsAll(set []string) bool {
	for _, s := range set {
		if !a.Has(s) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (a Annotations) Clone() Annotations {
	out := make(Annotations, len(a))
	maps.Copy(out, a)
	return out
}

// AddCount returns a+b clamped to the int64 range.
func AddCount(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// Normalized returns a copy with canonical keys and non-positive counts dropped.
// Keys that collapse onto the same canonical name are summed.
func (a Annotations) Normalized() Annotations {
	out := make(Annotations, len(a))
	for species, count := range a {
		name := CanonicalSpecies(species)
		if name == "" {
			continue
		}
		out[name] = AddCount(out[name], count)
	}
	maps.DeleteFunc(out, func(_ string, count int64) bool { return count <= 0 })
	return out
}

// Record is one stored media file and its annotations.
type Record struct {
	ID                string      `json:"file_id"`
	Kind              Kind        `json:"file_type"`
	Annotations       Annotations `json:"detections"`
	OriginalLocation  string      `json:"original_url"`
	ThumbnailLocation string      `json:"thumbnail_url,omitempty"`
}

// Normalize enforces the record invariants in place: canonical species keys,
// positive counts only, and a thumbnail location only on images.
func (r *Record) Normalize() {
	if r.Annotations == nil {
		r.Annotations = Annotations{}
	} else {
		r.Annotations = r.Annotations.Normalized()
	}
	if r.Kind != KindImage {
		r.ThumbnailLocation = ""
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.Annotations = r.Annotations.Clone()
	return r
}

package tagging

import (
	"context"
	"errors"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/database"
)

// Operation selects whether a bulk tag mutation adds or removes counts.
type Operation int

// Wire values match the public API: 1 adds, 0 removes.
const (
	OperationRemove Operation = 0
	OperationAdd    Operation = 1
)

// ParseOperation validates a wire operation value.
func ParseOperation(v int) (Operation, error) {
	switch op := Operation(v); op {
	case OperationAdd, OperationRemove:
		return op, nil
	}
	return 0, validation("operation must be 1 (add) or 0 (remove), got %d", v)
}

func (o Operation) String() string {
	if o == OperationAdd {
		return "add"
	}
	return "remove"
}

// MutationResult lists the assets updated by a bulk mutation.
type MutationResult struct {
	Updated  []string    `json:"updated_files"`
	Failures Diagnostics `json:"failures"`
}

// Mutator adds or removes species counts across a batch of assets.
type Mutator struct {
	store   database.AssetWriter
	locator asset.Locator
}

func NewMutator(store database.AssetWriter, locator asset.Locator) *Mutator {
	return &Mutator{store: store, locator: locator}
}

// Apply parses "species,count" tags and applies them to every URL. Input is
// validated up front; per-URL problems are reported in Failures and do not
// stop the batch. Assets are updated one at a time with a full record rewrite,
// so concurrent mutations of the same asset can lose an update.
func (m *Mutator) Apply(ctx context.Context, urls []string, op Operation, tags []string) (*MutationResult, error) {
	if len(urls) == 0 {
		return nil, validation("url list is required")
	}
	if op != OperationAdd && op != OperationRemove {
		return nil, validation("unknown operation %d", op)
	}
	delta, err := asset.ParseTagPairs(tags)
	if err != nil {
		return nil, err
	}

	result := &MutationResult{Updated: []string{}, Failures: Diagnostics{}}
	for _, url := range urls {
		id, ok := m.locator.AssetID(url)
		if !ok {
			result.Failures.add(url, "", ReasonUnresolvable)
			continue
		}

		rec, err := m.store.Get(ctx, id)
		if errors.Is(err, asset.ErrNotFound) {
			result.Failures.add(url, id, ReasonNotFound)
			continue
		}
		if err != nil {
			return nil, storeFailure("get asset", err)
		}

		if rec.Annotations == nil {
			rec.Annotations = asset.Annotations{}
		}
		applyDelta(rec.Annotations, delta, op)
		if err := m.store.Put(ctx, rec); err != nil {
			return nil, storeFailure("put asset", err)
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

// applyDelta mutates annotations in place. Additions saturate at MaxInt64;
// removal deletes any species whose count drops to zero or below.
func applyDelta(annotations asset.Annotations, delta map[string]int64, op Operation) {
	for species, count := range delta {
		current := annotations[species]
		if op == OperationAdd {
			annotations[species] = asset.AddCount(current, count)
			continue
		}
		if remaining := current - count; remaining > 0 {
			annotations[species] = remaining
		} else {
			delete(annotations, species)
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/kozaktomas/bird-tagger/internal/asset"
)

// SpeciesHandler serves the species catalog.
type SpeciesHandler struct {
	catalog []string
}

func NewSpeciesHandler(catalog []string) *SpeciesHandler {
	return &SpeciesHandler{catalog: catalog}
}

// SpeciesEntry pairs the catalog name with its stored annotation form.
type SpeciesEntry struct {
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
}

// List handles GET /species.
func (h *SpeciesHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := make([]SpeciesEntry, 0, len(h.catalog))
	for _, name := range h.catalog {
		entries = append(entries, SpeciesEntry{Name: name, Canonical: asset.CanonicalSpecies(name)})
	}
	respondJSON(w, http.StatusOK, map[string]any{"species": entries})
}

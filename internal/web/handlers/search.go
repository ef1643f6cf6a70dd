package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// SearchHandler handles the retrieval endpoints.
type SearchHandler struct {
	engine  *tagging.Engine
	locator asset.Locator
	log     *logger.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(engine *tagging.Engine, locator asset.Locator, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		engine:  engine,
		locator: locator,
		log:     log.With("handler", "search"),
	}
}

// LinksResponse is the body of every list search.
type LinksResponse struct {
	Links []string `json:"links"`
}

// parseTagQuery reads tag1=crow&count1=2&tag2=... pairs. Numbering starts at 1
// and stops at the first missing tagN; a missing countN defaults to 1.
func parseTagQuery(q url.Values) (map[string]int64, error) {
	requirements := make(map[string]int64)
	for i := 1; q.Has(fmt.Sprintf("tag%d", i)); i++ {
		species := q.Get(fmt.Sprintf("tag%d", i))
		count := int64(1)
		if raw := q.Get(fmt.Sprintf("count%d", i)); raw != "" {
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("count%d must be a positive integer", i)
			}
			count = n
		}
		requirements[species] = count
	}
	return requirements, nil
}

// Tags handles GET /search/tags.
func (h *SearchHandler) Tags(w http.ResponseWriter, r *http.Request) {
	requirements, err := parseTagQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	links, err := h.engine.SearchByTags(r.Context(), requirements)
	if err != nil {
		respondServiceError(w, h.log, "tag search", err)
		return
	}
	respondJSON(w, http.StatusOK, LinksResponse{Links: links})
}

// Species handles GET /search/species.
func (h *SearchHandler) Species(w http.ResponseWriter, r *http.Request) {
	species := r.URL.Query().Get("species")
	if strings.TrimSpace(species) == "" {
		respondError(w, http.StatusBadRequest, "species parameter is required")
		return
	}

	links, err := h.engine.SearchBySpecies(r.Context(), species)
	if err != nil {
		respondServiceError(w, h.log, "species search", err)
		return
	}
	respondJSON(w, http.StatusOK, LinksResponse{Links: links})
}

// Thumbnail handles GET /search/thumbnail, resolving a thumbnail to its original.
func (h *SearchHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	thumbnailURL := r.URL.Query().Get("thumbnail_url")
	if thumbnailURL == "" {
		respondError(w, http.StatusBadRequest, "thumbnail_url parameter is required")
		return
	}

	original, err := h.engine.ResolveThumbnail(r.Context(), thumbnailURL)
	if errors.Is(err, asset.ErrNotFound) {
		respondError(w, http.StatusNotFound, "thumbnail not found")
		return
	}
	if err != nil {
		respondServiceError(w, h.log, "thumbnail search", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"full_size_url": original,
		"https_url":     h.locator.HTTPS(original),
	})
}

// ContentResponse is the body of a search by file content.
type ContentResponse struct {
	DetectedSpecies []string `json:"detected_species"`
	MatchingFiles   []string `json:"matching_files"`
	TotalMatches    int      `json:"total_matches"`
	Message         string   `json:"message,omitempty"`
}

// File handles POST /search/file. The query file is the raw request body and
// its type comes from the filename parameter.
func (h *SearchHandler) File(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if asset.Extension(filename) == "" {
		respondError(w, http.StatusBadRequest, "file extension not provided")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxQueryFileSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("file size too large (max %dMB)", constants.MaxQueryFileSize>>20))
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "no file provided")
		return
	}

	result, err := h.engine.SearchByContent(r.Context(), filename, data)
	if err != nil {
		respondServiceError(w, h.log, "file search", err)
		return
	}

	resp := ContentResponse{
		DetectedSpecies: result.Species,
		MatchingFiles:   result.Links,
		TotalMatches:    len(result.Links),
	}
	if result.NoDetections {
		resp.Message = "no birds detected in the uploaded file"
	}
	respondJSON(w, http.StatusOK, resp)
}

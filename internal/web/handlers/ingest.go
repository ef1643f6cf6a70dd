package handlers

import (
	"net/http"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// IngestHandler runs detection for objects already in the blob store. It is
// the target of the storage upload event.
type IngestHandler struct {
	pipeline *tagging.Pipeline
	log      *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(pipeline *tagging.Pipeline, log *logger.Logger) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, log: log.With("handler", "ingest")}
}

// IngestBody is the body of POST /ingest.
type IngestBody struct {
	Key          string `json:"key"`
	ThumbnailKey string `json:"thumbnail_key"`
}

// Ingest handles POST /ingest. Images without a thumbnail key get one generated.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body IngestBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if strings.TrimSpace(body.Key) == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	rec, err := h.pipeline.Ingest(r.Context(), tagging.IngestRequest{
		Key:               body.Key,
		ThumbnailKey:      body.ThumbnailKey,
		GenerateThumbnail: body.ThumbnailKey == "",
	})
	if err != nil {
		respondServiceError(w, h.log, "ingest", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

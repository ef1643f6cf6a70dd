package handlers

import (
	"fmt"
	"net/http"

	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// TagsHandler handles bulk tag mutation.
type TagsHandler struct {
	mutator *tagging.Mutator
	log     *logger.Logger
}

// NewTagsHandler creates a new tags handler.
func NewTagsHandler(mutator *tagging.Mutator, log *logger.Logger) *TagsHandler {
	return &TagsHandler{mutator: mutator, log: log.With("handler", "tags")}
}

// TagsRequest is the body of POST /tags. Operation is a pointer so a missing
// value is distinguishable from 0 (remove).
type TagsRequest struct {
	URLs      []string `json:"url"`
	Operation *int     `json:"operation"`
	Tags      []string `json:"tags"`
}

// TagsResponse reports the assets updated by a bulk mutation.
type TagsResponse struct {
	Message  string              `json:"message"`
	Updated  []string            `json:"updated_files"`
	Failures tagging.Diagnostics `json:"failures"`
}

// Update handles POST /tags.
func (h *TagsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req TagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.URLs) == 0 || len(req.Tags) == 0 || req.Operation == nil {
		respondError(w, http.StatusBadRequest, "url, operation and tags are required")
		return
	}
	if len(req.URLs) > constants.MaxBatchSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("too many urls (max %d)", constants.MaxBatchSize))
		return
	}
	op, err := tagging.ParseOperation(*req.Operation)
	if err != nil {
		respondServiceError(w, h.log, "update tags", err)
		return
	}

	result, err := h.mutator.Apply(r.Context(), req.URLs, op, req.Tags)
	if err != nil {
		respondServiceError(w, h.log, "update tags", err)
		return
	}

	h.log.Info("tags updated", "operation", op.String(), "updated", len(result.Updated), "failed", len(result.Failures))
	respondJSON(w, http.StatusOK, TagsResponse{
		Message:  fmt.Sprintf("tag %s applied to %d file(s)", op, len(result.Updated)),
		Updated:  result.Updated,
		Failures: result.Failures,
	})
}

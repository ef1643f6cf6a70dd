package handlers

import (
	"fmt"
	"net/http"

	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// FilesHandler handles file deletion.
type FilesHandler struct {
	deleter *tagging.Deleter
	log     *logger.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(deleter *tagging.Deleter, log *logger.Logger) *FilesHandler {
	return &FilesHandler{deleter: deleter, log: log.With("handler", "files")}
}

// DeleteRequest is the body of DELETE /files.
type DeleteRequest struct {
	URLs []string `json:"urls"`
}

// DeleteResponse reports the assets removed by a bulk deletion.
type DeleteResponse struct {
	Message  string              `json:"message"`
	Deleted  []string            `json:"deleted_files"`
	Failures tagging.Diagnostics `json:"failures"`
}

// Delete handles DELETE /files.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.URLs) == 0 {
		respondError(w, http.StatusBadRequest, "urls list is required")
		return
	}
	if len(req.URLs) > constants.MaxBatchSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("too many urls (max %d)", constants.MaxBatchSize))
		return
	}

	result, err := h.deleter.Delete(r.Context(), req.URLs)
	if err != nil {
		respondServiceError(w, h.log, "delete files", err)
		return
	}

	h.log.Info("files deleted", "deleted", len(result.Deleted), "failed", len(result.Failures))
	respondJSON(w, http.StatusOK, DeleteResponse{
		Message:  fmt.Sprintf("deleted %d file(s)", len(result.Deleted)),
		Deleted:  result.Deleted,
		Failures: result.Failures,
	})
}

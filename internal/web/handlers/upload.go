package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/tagging"
)

// UploadHandler handles direct uploads and presigned upload forms.
type UploadHandler struct {
	pipeline *tagging.Pipeline
	log      *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(pipeline *tagging.Pipeline, log *logger.Logger) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, log: log.With("handler", "upload")}
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*tagging.UploadResult
}

// Upload handles multipart uploads with the file in the "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		respondError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()

	if _, ok := asset.KindFromName(header.Filename); !ok {
		respondError(w, http.StatusBadRequest, "file type not allowed")
		return
	}
	if header.Size > constants.MaxUploadSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("file size too large (max %dMB)", constants.MaxUploadSize>>20))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.pipeline.Upload(r.Context(), tagging.UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		UploadedBy:  r.FormValue("uploaded_by"),
	})
	if err != nil {
		respondServiceError(w, h.log, "upload", err)
		return
	}

	h.log.Info("file uploaded", "key", result.Key, "size", result.FileSize)
	respondJSON(w, http.StatusOK, UploadResponse{
		Success:      true,
		Message:      "file uploaded successfully",
		UploadResult: result,
	})
}

// PresignRequest is the body of POST /uploads/presign.
type PresignRequest struct {
	Filename string `json:"filename"`
	Folder   string `json:"folder"`
}

// Presign handles POST /uploads/presign and returns a browser upload form.
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Filename == "" {
		respondError(w, http.StatusBadRequest, "missing filename")
		return
	}

	post, err := h.pipeline.PresignUpload(r.Context(), req.Filename, req.Folder)
	if err != nil {
		if errors.Is(err, asset.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("failed to presign upload", "filename", sanitizeForLog(req.Filename), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create upload form")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

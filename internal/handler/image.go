package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/xndadelin/Grosharing/internal/storage"
)

type ImageHandler struct {
	images *storage.Images
	logger *slog.Logger
}

func NewImageHandler(images *storage.Images, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

type uploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Upload stores the raw request body as an image. The Content-Type header
// names the image type.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "missing content type")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, storage.MaxImageSize))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}

	path, url, err := h.images.Upload(r.Context(), data, contentType)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "image storage not configured")
	case errors.Is(err, storage.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported image type")
	case errors.Is(err, storage.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
	case err != nil:
		h.logger.Error("upload image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
	default:
		writeJSON(w, http.StatusCreated, uploadResponse{Path: path, URL: url})
	}
}

// Get streams an image from the bucket. It serves the public image URLs when
// no CDN fronts the bucket.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := h.images.Open(r.Context(), r.PathValue("path"))
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid image path")
		return
	case errors.Is(err, storage.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	case err != nil:
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream image", "error", err)
	}
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.images.Delete(r.Context(), r.PathValue("path"))
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid image path")
	case errors.Is(err, storage.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "image storage not configured")
	case err != nil:
		h.logger.Error("delete image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete image")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

package handlers

import (
	"TrackingCar/internal/response"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileHandler отдаёт сохранённые вложения и изображения профилей.
type FileHandler struct {
	Files  storage.FileStore
	Logger *zap.SugaredLogger
}

func NewFileHandler(files storage.FileStore, logger *zap.SugaredLogger) *FileHandler {
	return &FileHandler{Files: files, Logger: logger}
}

// Serve GET /api/files/{folder}/{name}. В папке users отдаются только изображения.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	name := chi.URLParam(r, "name")

	switch folder {
	case storage.FolderCars:
	case storage.FolderUsers:
		if !service.AllowedImage(name) {
			badRequest(w, "unsupported image format")
			return
		}
	default:
		response.Fail(http.StatusNotFound, "unknown folder").Write(w)
		return
	}

	rc, err := h.Files.Open(r.Context(), folder, name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			response.Fail(http.StatusNotFound, "file not found").Write(w)
		case errors.Is(err, storage.ErrInvalidName):
			badRequest(w, "invalid file name")
		default:
			h.Logger.Errorw("ServeFile: open failed", "folder", folder, "name", name, "error", err)
			response.Fail(http.StatusInternalServerError, "internal server error").Write(w)
		}
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warnw("ServeFile: copy interrupted", "folder", folder, "name", name, "error", err)
	}
}

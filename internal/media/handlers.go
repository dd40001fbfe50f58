package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Handlers handles HTTP requests for exercise videos
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleUpload handles POST /v1/media/videos (multipart, field "file")
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.service.MaxUploadMB())<<20 + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fileTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "File is required")
		return
	}
	file.Close() // service reopens it

	dto, err := h.service.UploadVideo(r.Context(), fileHeader)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// HandleURL handles GET /v1/media/videos/url?key=
func (h *Handlers) HandleURL(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.VideoURL(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDownload handles GET /v1/media/videos/download?key=
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	data, contentType, err := h.service.VideoData(r.Context(), key)
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", path.Base(key)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleDelete handles DELETE /v1/media/videos?key=
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVideo(r.Context(), r.URL.Query().Get("key")); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) fileTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("File exceeds maximum size of %d MB", h.service.MaxUploadMB()))
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		h.fileTooLarge(w)
	case errors.Is(err, ErrUnsupportedMime):
		writeError(w, http.StatusBadRequest, "unsupported_mime", "File type not supported")
	case errors.Is(err, ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid_key", "Invalid object key")
	case errors.Is(err, ErrVideoNotFound):
		writeError(w, http.StatusNotFound, "video_not_found", "Video not found")
	default:
		log.WithError(err).Error("media: request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

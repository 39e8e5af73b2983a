package handler

import (
	"net/http"
	"strconv"
	"strings"

	"dance-storefront/internal/service"
	"dance-storefront/pkg/apierror"
)

type MediaHandler struct {
	service *service.MediaService
}

func NewMediaHandler(service *service.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Serve streams a resized copy of an allowlisted remote image.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, apierror.New("BAD_REQUEST", "url is required", "url", http.StatusBadRequest))
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("w"))

	file, info, err := h.service.Resized(r.Context(), rawURL, width)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

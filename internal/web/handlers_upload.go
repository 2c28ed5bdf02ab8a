package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/awards/internal/core"
	"github.com/JonMunkholm/awards/internal/web/templates"
)

// handleUpload ingests one multipart file field named "file".
// Validation and parsing each reopen the part from the parsed form.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	release, err := s.limiter.Acquire(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrTooManyUploads) {
			w.Header().Set("Retry-After", "30")
			respondError(w, r, err, http.StatusTooManyRequests)
			return
		}
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	file.Close()

	ctx, cancel := context.WithTimeout(withUploadSource(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.service.ProcessUpload(ctx, core.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	})
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsBadRequest(err) {
			status = http.StatusBadRequest
		}
		respondError(w, r, err, status)
		return
	}

	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.UploadSummary(result).Render(r.Context(), w); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUploadHistory lists recent uploads, newest first.
func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	logs, err := s.service.RecentUploads(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.UploadHistory(logs).Render(r.Context(), w); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Uploads: s.limiter.Status()})
}

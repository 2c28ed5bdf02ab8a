package web

// errors.go turns errors into responses. Technical details are logged with
// the request ID; clients get the catalogued message and code. Ingestion
// errors caused by the upload itself (4xx) also echo the technical message
// so callers can locate the offending row.

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/awards/internal/core"
	"github.com/JonMunkholm/awards/internal/logging"
	"github.com/JonMunkholm/awards/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(err error, status int) ErrorResponse {
	msg := core.MapError(err)
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if status < http.StatusInternalServerError {
		resp.Error = err.Error()
	}
	return resp
}

// respondError logs err and renders it for the client.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	resp := newErrorResponse(err, status)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"code", resp.Code,
	)

	if isHTMX(r) && !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if rerr := templates.ErrorAlert(resp.Message, resp.Action, resp.Code).Render(r.Context(), w); rerr != nil {
			slog.Error("render error alert", "error", rerr)
		}
		return
	}
	writeJSON(w, status, resp)
}

// writeError reports a transport-level failure that has no underlying error.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondError(w, r, plainError(message), status)
}

type plainError string

func (e plainError) Error() string { return string(e) }

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client asked for JSON explicitly.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

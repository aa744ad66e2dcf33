// Package handlers writes JSON responses in the document repository's wire
// format. Error bodies carry a single "detail" message.
package handlers

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes data as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondDetail writes {"detail": msg}. An empty msg falls back to the
// status text.
func RespondDetail(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	RespondJSON(w, status, map[string]string{"detail": msg})
}

// RespondBytes writes a raw body. An empty contentType is sniffed from data.
func RespondBytes(w http.ResponseWriter, status int, contentType string, data []byte) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(data)
}

// Package api is the thin request layer over the document repository's REST
// surface. It returns typed records and raw version bytes, and maps HTTP
// failures onto a small error taxonomy.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/docview/internal/documents"
)

// Request failures. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = documents.ErrValidation
	ErrNetwork      = errors.New("network failure")
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Detail string
	kind   error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// MapStatus converts an HTTP status code to its error kind.
// Statuses outside the taxonomy count as ErrNetwork: the request produced no
// usable response.
func MapStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusRequestEntityTooLarge:
		return ErrFileTooLarge
	default:
		return ErrNetwork
	}
}

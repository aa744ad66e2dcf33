package session

import (
	"slices"

	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/internal/preview"
)

// State is the single state variable of a session.
type State int

const (
	Idle State = iota
	LoadingList
	PreviewLoading
	PreviewReady
	PreviewUnavailable
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingList:
		return "loading-list"
	case PreviewLoading:
		return "preview-loading"
	case PreviewReady:
		return "preview-ready"
	case PreviewUnavailable:
		return "preview-unavailable"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Renderer names the viewer able to display the active preview.
type Renderer string

const (
	RendererNone      Renderer = "none"
	RendererPaginated Renderer = "pdf"
	RendererImage     Renderer = "image"
)

// Snapshot is a consistent copy of the session at one instant.
type Snapshot struct {
	State             State
	DocumentID        string
	Document          *documents.Document
	Versions          []documents.Version
	SelectedVersionID string
	Handle            *preview.Handle
	Err               error
}

// Renderer reports which viewer applies. Only a ready preview of a supported
// kind has one.
func (s Snapshot) Renderer() Renderer {
	if s.State != PreviewReady || s.Handle == nil {
		return RendererNone
	}
	switch s.Handle.Kind {
	case preview.KindPaginated:
		return RendererPaginated
	case preview.KindRaster:
		return RendererImage
	default:
		return RendererNone
	}
}

// Selected returns the selected version, or nil.
func (s Snapshot) Selected() *documents.Version {
	i := slices.IndexFunc(s.Versions, func(v documents.Version) bool {
		return v.ID == s.SelectedVersionID
	})
	if i < 0 {
		return nil
	}
	v := s.Versions[i]
	return &v
}

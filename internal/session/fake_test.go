package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/JaimeStill/docview/internal/api"
	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/internal/preview"
	"github.com/JaimeStill/docview/internal/session"
	"github.com/JaimeStill/docview/pkg/logging"
)

// source is an in-memory Source. VersionFile calls for a gated id block until
// the gate is opened and announce themselves on started.
type source struct {
	mu          sync.Mutex
	doc         *documents.Document
	docErr      error
	versions    []documents.Version
	versionsErr error
	files       map[string]*api.File
	fileErrs    map[string]error
	gates       map[string]chan struct{}
	fetches     map[string]int
	created     int
	started     chan string
}

func newSource(doc documents.Document, vs ...documents.Version) *source {
	s := &source{
		doc:      &doc,
		versions: vs,
		files:    make(map[string]*api.File),
		fileErrs: make(map[string]error),
		gates:    make(map[string]chan struct{}),
		fetches:  make(map[string]int),
		started:  make(chan string, 16),
	}
	for _, v := range vs {
		s.files[v.ID] = &api.File{Data: []byte("content of " + v.ID), ContentType: "application/pdf"}
	}
	return s
}

func (s *source) gate(id string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[id] = ch
	return ch
}

func (s *source) failFile(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileErrs[id] = err
}

func (s *source) fetchCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[id]
}

func (s *source) Document(ctx context.Context, id string) (*documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docErr != nil {
		return nil, s.docErr
	}
	d := *s.doc
	return &d, nil
}

func (s *source) Versions(ctx context.Context, documentID string) ([]documents.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versionsErr != nil {
		return nil, s.versionsErr
	}
	return append([]documents.Version(nil), s.versions...), nil
}

func (s *source) VersionFile(ctx context.Context, versionID string) (*api.File, error) {
	s.mu.Lock()
	s.fetches[versionID]++
	gate := s.gates[versionID]
	s.mu.Unlock()

	if gate != nil {
		s.started <- versionID
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fileErrs[versionID]; err != nil {
		return nil, err
	}
	f, ok := s.files[versionID]
	if !ok {
		return nil, fmt.Errorf("%w: file %s", api.ErrNotFound, versionID)
	}
	return f, nil
}

func (s *source) CreateVersion(ctx context.Context, documentID, filename string, data []byte) (*documents.Version, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", api.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, v := range s.versions {
		next = max(next, v.VersionNumber+1)
	}
	s.created++

	v := documents.Version{
		ID:            fmt.Sprintf("up-%d", s.created),
		DocumentID:    documentID,
		VersionNumber: next,
		FilePath:      "uploads/" + filename,
	}
	s.versions = append(s.versions, v)
	s.files[v.ID] = &api.File{Data: data}
	return &v, nil
}

// previews counts Release calls per local ref on top of a real cache.
type previews struct {
	*preview.Cache

	mu       sync.Mutex
	releases map[string]int
}

func newPreviews(t *testing.T) *previews {
	t.Helper()
	c, err := preview.New(4, logging.Discard())
	if err != nil {
		t.Fatalf("preview.New() failed: %v", err)
	}
	return &previews{Cache: c, releases: make(map[string]int)}
}

func (p *previews) Release(h *preview.Handle) {
	if h != nil {
		p.mu.Lock()
		p.releases[h.LocalRef]++
		p.mu.Unlock()
	}
	p.Cache.Release(h)
}

func (p *previews) released(ref string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases[ref]
}

func newController(t *testing.T, src session.Source) (*session.Controller, *previews) {
	t.Helper()
	p := newPreviews(t)
	c := session.New(src, p, logging.Discard())
	t.Cleanup(c.Close)
	return c, p
}

func doc1() (documents.Document, []documents.Version) {
	return documents.Document{ID: "doc-1", Title: "Quarterly Report", FilePath: "uploads/report.pdf"},
		[]documents.Version{
			{ID: "v1", DocumentID: "doc-1", VersionNumber: 1, FilePath: "uploads/report.pdf"},
			{ID: "v2", DocumentID: "doc-1", VersionNumber: 2, FilePath: "uploads/report.pdf"},
		}
}

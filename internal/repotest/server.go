// Package repotest runs an in-process fake of the document repository's REST
// surface for tests.
package repotest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/pkg/handlers"
)

type file struct {
	contentType string
	data        []byte
}

// Server is a fake repository. The zero Token accepts every request;
// otherwise requests must carry "Bearer <Token>".
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	token       string
	docs        map[string]documents.Document
	versions    map[string][]documents.Version
	files       map[string]file
	tags        []string
	attached    map[string][]string
	hits        map[string]int
	lastAuth    string
	createTagFn func(name string) int
}

// New starts a fake repository. Close it with Server.Close.
func New() *Server {
	s := &Server{
		docs:     make(map[string]documents.Document),
		versions: make(map[string][]documents.Version),
		files:    make(map[string]file),
		attached: make(map[string][]string),
		hits:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /documents/{id}", s.getDocument)
	mux.HandleFunc("GET /documents/{id}/versions", s.listVersions)
	mux.HandleFunc("POST /documents/{id}/versions", s.createVersion)
	mux.HandleFunc("GET /documents/versions/{id}/file", s.getFile)
	mux.HandleFunc("GET /tags/", s.listTags)
	mux.HandleFunc("POST /tags/", s.createTag)
	mux.HandleFunc("POST /tags/attach/{id}", s.attachTag)

	s.Server = httptest.NewServer(s.track(mux))
	return s
}

// RequireToken makes every request without the given bearer token fail 401.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// AddDocument registers a document and its versions.
func (s *Server) AddDocument(doc documents.Document, vs ...documents.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.versions[doc.ID] = append(s.versions[doc.ID], vs...)
}

// AddFile registers the content served for a version.
func (s *Server) AddFile(versionID, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[versionID] = file{contentType: contentType, data: data}
}

// AddTag registers an existing tag.
func (s *Server) AddTag(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, name)
}

// OnCreateTag overrides the status returned when a tag is created.
func (s *Server) OnCreateTag(fn func(name string) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createTagFn = fn
}

// Hits returns how many requests reached "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// LastAuthorization returns the Authorization header of the latest request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Attached returns the tags attached to a document.
func (s *Server) Attached(documentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.attached[documentID]...)
}

// Tags returns every known tag name.
func (s *Server) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...)
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.lastAuth = r.Header.Get("Authorization")
		token := s.token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			handlers.RespondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc, ok := s.docs[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		handlers.RespondDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	_, ok := s.docs[id]
	vs := append([]documents.Version{}, s.versions[id]...)
	s.mu.Unlock()

	if !ok {
		handlers.RespondDetail(w, http.StatusNotFound, "Document not found")
		return
	}
	handlers.RespondJSON(w, http.StatusOK, vs)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, ok := s.files[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		handlers.RespondDetail(w, http.StatusNotFound, "File not found")
		return
	}
	handlers.RespondBytes(w, http.StatusOK, f.contentType, f.data)
}

func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	src, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondDetail(w, http.StatusUnprocessableEntity, "file field required")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil || len(data) == 0 {
		handlers.RespondDetail(w, http.StatusBadRequest, "empty file")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		handlers.RespondDetail(w, http.StatusNotFound, "Document not found")
		return
	}

	next := 1
	for _, v := range s.versions[id] {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
	}

	v := documents.Version{
		ID:            fmt.Sprintf("%s-v%d", id, next),
		DocumentID:    id,
		VersionNumber: next,
		FilePath:      "uploads/" + header.Filename,
		UploadedBy:    "tester",
	}
	s.versions[id] = append(s.versions[id], v)
	s.files[v.ID] = file{data: data}

	handlers.RespondJSON(w, http.StatusOK, v)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]string, 0, len(s.tags))
	for i, name := range s.tags {
		out = append(out, map[string]string{"id": fmt.Sprintf("t%d", i+1), "name": name})
	}
	s.mu.Unlock()

	handlers.RespondJSON(w, http.StatusOK, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		handlers.RespondDetail(w, http.StatusUnprocessableEntity, "name required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createTagFn != nil {
		if status := s.createTagFn(body.Name); status != http.StatusOK {
			handlers.RespondDetail(w, status, "tag create rejected")
			return
		}
	}

	for _, t := range s.tags {
		if strings.EqualFold(t, body.Name) {
			handlers.RespondDetail(w, http.StatusConflict, "Tag already exists")
			return
		}
	}
	s.tags = append(s.tags, body.Name)
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"name": body.Name})
}

func (s *Server) attachTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondDetail(w, http.StatusUnprocessableEntity, "name required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.attached[id] {
		if t == body.Name {
			handlers.RespondDetail(w, http.StatusConflict, "Tag already attached")
			return
		}
	}
	s.attached[id] = append(s.attached[id], body.Name)
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"name": body.Name})
}

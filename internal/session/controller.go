// Package session drives version selection and preview resolution for one
// open document.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/docview/internal/api"
	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/internal/preview"
	"github.com/JaimeStill/docview/internal/versions"
)

// Source is the repository surface a session reads from.
type Source interface {
	Document(ctx context.Context, id string) (*documents.Document, error)
	Versions(ctx context.Context, documentID string) ([]documents.Version, error)
	VersionFile(ctx context.Context, versionID string) (*api.File, error)
	CreateVersion(ctx context.Context, documentID, filename string, data []byte) (*documents.Version, error)
}

// Previewer holds the bytes of the active preview.
type Previewer interface {
	Materialize(versionID, filePath string, data []byte, declaredType string) (*preview.Handle, error)
	Release(h *preview.Handle)
	Read(h *preview.Handle) ([]byte, error)
	Close()
}

// Observer receives a snapshot after every transition. It runs with the
// controller locked and must not call back into it.
type Observer func(Snapshot)

// tag identifies one preview request. A result is applied only while its tag
// is still the pending one.
type tag struct {
	versionID string
	seq       uint64
}

// Controller is safe for concurrent use. Network I/O happens outside its lock;
// the newest request wins regardless of the order results arrive in.
type Controller struct {
	src      Source
	previews Previewer
	logger   *slog.Logger

	mu       sync.Mutex
	observer Observer
	seq      uint64
	pending  tag

	state      State
	documentID string
	doc        *documents.Document
	store      *versions.Store
	selected   string
	handle     *preview.Handle
	err        error
}

func New(src Source, previews Previewer, logger *slog.Logger) *Controller {
	return &Controller{
		src:      src,
		previews: previews,
		logger:   logger.With("system", "session"),
		store:    versions.New(),
	}
}

// Observe registers fn for transition notifications, replacing any previous
// observer. A nil fn disables notifications.
func (c *Controller) Observe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// OpenSession loads the document and its versions, then previews the latest
// version. Any session already open is discarded first. A failure to load the
// document or its versions moves the session to Error and is returned.
func (c *Controller) OpenSession(ctx context.Context, documentID string) error {
	c.mu.Lock()
	c.teardown()
	c.seq++
	seq := c.seq
	c.documentID = documentID
	c.transition(LoadingList, nil)
	c.mu.Unlock()

	c.logger.Info("opening session", "document_id", documentID)

	var (
		doc *documents.Document
		vs  []documents.Version
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.src.Document(gctx, documentID)
		doc = d
		return err
	})
	g.Go(func() error {
		list, err := c.src.Versions(gctx, documentID)
		vs = list
		return err
	})

	err := g.Wait()

	store := versions.New()
	if err == nil {
		err = doc.Validate()
	}
	if err == nil {
		err = store.Load(vs)
	}

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.logger.Debug("superseded session load discarded", "document_id", documentID)
		return nil
	}

	if err != nil {
		err = fmt.Errorf("open document %s: %w", documentID, err)
		c.transition(Error, err)
		c.mu.Unlock()
		c.logger.Warn("session failed", "document_id", documentID, "error", err)
		return err
	}

	c.doc = doc
	c.store = store

	latest := store.Latest()
	if latest == nil {
		c.transition(PreviewUnavailable, nil)
		c.mu.Unlock()
		c.logger.Info("document has no versions", "document_id", documentID)
		return nil
	}

	req := c.begin(*latest)
	c.mu.Unlock()

	return c.fetch(ctx, req, *latest)
}

// SelectVersion previews the version with the given id. Selecting the version
// already selected does nothing, except after a failed preview where it
// retries the fetch. An error is returned when the request is rejected or
// when the preview fetch fails; in the latter case it wraps ErrPreview and the
// session moves to PreviewUnavailable, still usable.
func (c *Controller) SelectVersion(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.selectable(); err != nil {
		c.mu.Unlock()
		return err
	}

	if id == c.selected && c.state != PreviewUnavailable {
		c.mu.Unlock()
		return nil
	}

	v := c.store.Find(id)
	if v == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownVersion, id)
	}

	req := c.begin(*v)
	c.mu.Unlock()

	return c.fetch(ctx, req, *v)
}

// AppendVersion adds a newly created version and selects it. When data is
// non-nil it is previewed directly instead of fetched.
func (c *Controller) AppendVersion(ctx context.Context, v documents.Version, data []byte, contentType string) error {
	c.mu.Lock()
	if err := c.selectable(); err != nil {
		c.mu.Unlock()
		return err
	}

	if v.DocumentID != "" && v.DocumentID != c.documentID {
		c.mu.Unlock()
		return fmt.Errorf("%w: version %s belongs to document %s", documents.ErrValidation, v.ID, v.DocumentID)
	}

	if err := c.store.Append(v); err != nil {
		c.mu.Unlock()
		return err
	}

	c.logger.Info("version appended", "document_id", c.documentID, "version_id", v.ID, "version_number", v.VersionNumber)

	req := c.begin(v)
	if data != nil {
		defer c.mu.Unlock()
		return c.apply(req, v, &api.File{Data: data, ContentType: contentType}, nil)
	}
	c.mu.Unlock()

	return c.fetch(ctx, req, v)
}

// UploadVersion creates a new version from data and selects it. A rejected
// upload leaves the session untouched.
func (c *Controller) UploadVersion(ctx context.Context, filename string, data []byte) (*documents.Version, error) {
	c.mu.Lock()
	if err := c.selectable(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	documentID := c.documentID
	c.mu.Unlock()

	v, err := c.src.CreateVersion(ctx, documentID, filename, data)
	if err != nil {
		return nil, fmt.Errorf("upload version: %w", err)
	}

	if err := c.AppendVersion(ctx, *v, data, ""); err != nil {
		return v, err
	}
	return v, nil
}

// ReadPreview returns the bytes of the active preview.
func (c *Controller) ReadPreview() ([]byte, *preview.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != PreviewReady || c.handle == nil {
		return nil, nil, fmt.Errorf("%w: no preview ready (%s)", ErrInvalidState, c.state)
	}

	data, err := c.previews.Read(c.handle)
	if err != nil {
		return nil, nil, err
	}
	h := *c.handle
	return data, &h, nil
}

// Close releases every preview reference and returns to Idle. Results of
// requests still in flight are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	documentID := c.documentID
	c.teardown()
	c.seq++
	c.previews.Close()
	c.transition(Idle, nil)

	if documentID != "" {
		c.logger.Info("session closed", "document_id", documentID)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// selectable must be called with mu held.
func (c *Controller) selectable() error {
	switch c.state {
	case Idle:
		return ErrClosed
	case LoadingList, Error:
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	default:
		return nil
	}
}

// begin releases the active handle and issues a new request tag for v. It
// must be called with mu held.
func (c *Controller) begin(v documents.Version) tag {
	c.previews.Release(c.handle)
	c.handle = nil

	c.seq++
	c.pending = tag{versionID: v.ID, seq: c.seq}
	c.selected = v.ID
	c.transition(PreviewLoading, nil)

	c.logger.Info("version selected", "document_id", c.documentID, "version_id", v.ID, "version_number", v.VersionNumber)
	return c.pending
}

func (c *Controller) fetch(ctx context.Context, req tag, v documents.Version) error {
	f, err := c.src.VersionFile(ctx, v.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(req, v, f, err)
}

// apply settles the request identified by req. Stale results are dropped
// before anything is materialized. It must be called with mu held.
func (c *Controller) apply(req tag, v documents.Version, f *api.File, err error) error {
	if c.pending != req {
		c.logger.Debug("stale preview discarded", "version_id", req.versionID, "current", c.pending.versionID)
		return nil
	}

	if err == nil {
		var h *preview.Handle
		h, err = c.previews.Materialize(v.ID, v.FilePath, f.Data, f.ContentType)
		if err == nil {
			c.handle = h
			c.transition(PreviewReady, nil)
			return nil
		}
	}

	err = fmt.Errorf("%w: version %s: %w", ErrPreview, v.ID, err)
	c.transition(PreviewUnavailable, err)
	c.logger.Warn("preview unavailable", "version_id", v.ID, "error", err)
	return err
}

// teardown releases the active handle and clears per-document data. It must
// be called with mu held.
func (c *Controller) teardown() {
	c.previews.Release(c.handle)
	c.handle = nil
	c.pending = tag{}
	c.documentID = ""
	c.doc = nil
	c.store = versions.New()
	c.selected = ""
	c.err = nil
}

// transition must be called with mu held.
func (c *Controller) transition(s State, err error) {
	c.state = s
	c.err = err
	if c.observer != nil {
		c.observer(c.snapshot())
	}
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		State:             c.state,
		DocumentID:        c.documentID,
		Versions:          c.store.List(),
		SelectedVersionID: c.selected,
		Err:               c.err,
	}
	if c.doc != nil {
		d := *c.doc
		s.Document = &d
	}
	if c.handle != nil {
		h := *c.handle
		s.Handle = &h
	}
	return s
}

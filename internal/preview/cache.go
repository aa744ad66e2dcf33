// Package preview classifies version files and keeps the bytes of the active
// preview behind revocable local references.
package preview

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2"
)

const refPrefix = "blob:"

// Cache owns the local references handed out for previews. At most one handle
// is active; materializing a new one releases the previous first.
type Cache struct {
	mu       sync.Mutex
	registry *lru.Cache[string, []byte]
	active   *Handle
	quiet    bool
	logger   *slog.Logger
}

// New creates a cache whose registry holds at most maxLive references.
// Exceeding it means a handle was never released; the oldest is revoked.
func New(maxLive int, logger *slog.Logger) (*Cache, error) {
	c := &Cache{logger: logger.With("system", "preview")}

	registry, err := lru.NewWithEvict(maxLive, c.revoked)
	if err != nil {
		return nil, fmt.Errorf("create preview registry: %w", err)
	}
	c.registry = registry
	return c, nil
}

// Materialize registers data under a fresh local reference and makes it the
// active handle. The cache takes ownership of data.
func (c *Cache) Materialize(versionID, filePath string, data []byte, declaredType string) (*Handle, error) {
	h := &Handle{
		VersionID:   versionID,
		LocalRef:    refPrefix + uuid.NewString(),
		Kind:        Classify(filePath),
		ContentType: detectContentType(declaredType, data),
		Size:        int64(len(data)),
	}
	c.enrich(h, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.release(c.active.LocalRef)
	}
	c.registry.Add(h.LocalRef, data)
	c.active = h

	c.logger.Info("preview materialized",
		"version_id", versionID,
		"kind", h.Kind,
		"size", units.HumanSize(float64(h.Size)),
	)

	out := *h
	return &out, nil
}

// Release revokes the handle's local reference. Releasing nil or an already
// released handle does nothing.
func (c *Cache) Release(h *Handle) {
	if h == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.release(h.LocalRef)
}

// Read returns the bytes behind a live handle.
func (c *Cache) Read(h *Handle) ([]byte, error) {
	if h == nil {
		return nil, ErrReleased
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.registry.Peek(h.LocalRef)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReleased, h.LocalRef)
	}
	return data, nil
}

// Active returns a copy of the active handle, or nil.
func (c *Cache) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil
	}
	out := *c.active
	return &out
}

// Live counts references not yet revoked.
func (c *Cache) Live() int {
	return c.registry.Len()
}

// Close revokes every reference. The cache stays usable.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.registry.Len()
	c.quiet = true
	c.registry.Purge()
	c.quiet = false
	c.active = nil

	if n > 0 {
		c.logger.Debug("preview cache closed", "revoked", n)
	}
}

// release must be called with mu held.
func (c *Cache) release(ref string) {
	if c.active != nil && c.active.LocalRef == ref {
		c.active = nil
	}

	c.quiet = true
	removed := c.registry.Remove(ref)
	c.quiet = false

	if removed {
		c.logger.Debug("preview released", "ref", ref)
	}
}

// revoked runs for every reference leaving the registry. Removals outside
// release and Close are capacity evictions of a leaked handle.
func (c *Cache) revoked(ref string, _ []byte) {
	if c.quiet {
		return
	}
	c.logger.Warn("preview ref evicted while live", "ref", ref)
	if c.active != nil && c.active.LocalRef == ref {
		c.active = nil
	}
}

func (c *Cache) enrich(h *Handle, data []byte) {
	switch h.Kind {
	case KindPaginated:
		pc, err := pdfPageCount(data)
		if err != nil {
			c.logger.Warn("failed to extract pdf page count", "version_id", h.VersionID, "error", err)
			return
		}
		h.PageCount = pc
	case KindRaster:
		w, hgt, err := imageDimensions(data)
		if err != nil {
			c.logger.Warn("failed to read image dimensions", "version_id", h.VersionID, "error", err)
			return
		}
		h.Width, h.Height = w, hgt
	}
}

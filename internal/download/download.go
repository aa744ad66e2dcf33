// Package download saves a fresh copy of a version file to local storage.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/JaimeStill/docview/internal/api"
	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/internal/storage"
)

// Fetcher retrieves version bytes.
type Fetcher interface {
	VersionFile(ctx context.Context, versionID string) (*api.File, error)
}

// Result describes a saved download.
type Result struct {
	Filename    string
	Path        string
	ContentType string
	Size        int64
}

// Materializer writes downloads through a storage.System. It never reads the
// preview cache; every download fetches the bytes again.
type Materializer struct {
	src    Fetcher
	store  storage.System
	logger *slog.Logger
}

func New(src Fetcher, store storage.System, logger *slog.Logger) *Materializer {
	return &Materializer{
		src:    src,
		store:  store,
		logger: logger.With("system", "download"),
	}
}

// Download fetches version v of doc and saves it under Filename(doc, v),
// replacing any earlier download of the same name. doc may be nil.
func (m *Materializer) Download(ctx context.Context, doc *documents.Document, v documents.Version) (*Result, error) {
	name := Filename(doc, v)

	f, err := m.src.VersionFile(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("download version %s: %w", v.ID, err)
	}

	if exists, _ := m.store.Validate(ctx, name); exists {
		m.logger.Info("replacing earlier download", "filename", name)
	}

	if err := m.store.Store(ctx, name, f.Data); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	path, err := m.store.Path(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}

	res := &Result{
		Filename:    name,
		Path:        path,
		ContentType: f.ContentType,
		Size:        int64(len(f.Data)),
	}

	m.logger.Info("version downloaded",
		"version_id", v.ID,
		"filename", name,
		"size", units.HumanSize(float64(res.Size)),
	)
	return res, nil
}

// Filename builds "{title}_v{number}.{ext}". The title falls back from the
// version to the document to "document"; the extension comes from the
// version's file path and defaults to "bin".
func Filename(doc *documents.Document, v documents.Version) string {
	title := strings.TrimSpace(v.Title)
	if title == "" && doc != nil {
		title = strings.TrimSpace(doc.Title)
	}
	if title == "" {
		title = "document"
	}

	ext := strings.TrimPrefix(filepath.Ext(v.FilePath), ".")
	if ext == "" {
		ext = "bin"
	}

	return sanitizeFilename(fmt.Sprintf("%s_v%d.%s", title, v.VersionNumber, ext))
}

var filenameReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

func sanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	if strings.HasPrefix(name, ".") {
		name = "_" + name[1:]
	}
	return name
}

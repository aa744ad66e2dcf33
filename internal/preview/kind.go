package preview

import (
	"path/filepath"
	"strings"
)

// Kind is the rendering class of a version file.
type Kind string

const (
	KindPaginated   Kind = "paginated-document"
	KindRaster      Kind = "raster-image"
	KindUnsupported Kind = "unsupported"
)

var extensions = map[string]Kind{
	".pdf":  KindPaginated,
	".jpg":  KindRaster,
	".jpeg": KindRaster,
	".png":  KindRaster,
	".gif":  KindRaster,
	".bmp":  KindRaster,
	".webp": KindRaster,
}

// Classify derives a Kind from the file path extension alone. The declared
// content type of the served bytes plays no part.
func Classify(filePath string) Kind {
	if k, ok := extensions[strings.ToLower(filepath.Ext(filePath))]; ok {
		return k
	}
	return KindUnsupported
}

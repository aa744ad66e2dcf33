package config

import (
	"fmt"
	"os"
	"strconv"
)

const EnvPreviewMaxLive = "PREVIEW_MAX_LIVE"

// PreviewConfig bounds the preview object registry.
type PreviewConfig struct {
	// MaxLive caps unreleased local references. Only one is active per session;
	// anything above that is a leak and gets revoked on overflow. Default: 4.
	MaxLive int `toml:"max_live"`
}

func (c *PreviewConfig) Finalize() error {
	if c.MaxLive == 0 {
		c.MaxLive = 4
	}
	if v := os.Getenv(EnvPreviewMaxLive); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPreviewMaxLive, err)
		}
		c.MaxLive = n
	}
	if c.MaxLive < 1 {
		return fmt.Errorf("max_live must be at least 1")
	}
	return nil
}

func (c *PreviewConfig) Merge(overlay *PreviewConfig) {
	if overlay.MaxLive != 0 {
		c.MaxLive = overlay.MaxLive
	}
}

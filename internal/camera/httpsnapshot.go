package camera

import (
	"context"
	"strings"
)

// TypeHTTPSnapshot is the registry key of the generic snapshot URL camera
const TypeHTTPSnapshot = "http"

// HTTPSnapshotCamera fetches stills from a fixed path on the camera's web server
type HTTPSnapshotCamera struct {
	*capturer
	path string
}

// NewHTTPSnapshotCamera creates a camera requesting <host><snapshotUrlPath>.
// The snapshotUrlPath option is required.
func NewHTTPSnapshotCamera(cfg Config, sniffer Sniffer, logger Logger) (*HTTPSnapshotCamera, error) {
	path, err := cfg.Options.String(OptionSnapshotURLPath)
	if err != nil {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "options." + OptionSnapshotURLPath, Reason: "invalid value", Err: err}
	}
	if strings.TrimSpace(path) == "" {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "options." + OptionSnapshotURLPath, Reason: "is required for http cameras"}
	}

	profile, err := NewProfile(cfg)
	if err != nil {
		return nil, err
	}

	c, err := newCapturer(profile, cfg.Options, sniffer, logger)
	if err != nil {
		return nil, err
	}

	return &HTTPSnapshotCamera{capturer: c, path: path}, nil
}

// URL returns the snapshot URL
func (c *HTTPSnapshotCamera) URL() string {
	return c.baseURL() + c.path
}

// CaptureImage implements Camera
func (c *HTTPSnapshotCamera) CaptureImage(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, c.URL())
}

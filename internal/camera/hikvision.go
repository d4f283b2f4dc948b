package camera

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// TypeHikvision is the registry key of Hikvision ISAPI cameras
const TypeHikvision = "hikvision"

// HikvisionCamera fetches stills through the ISAPI picture endpoint of a channel
type HikvisionCamera struct {
	*capturer
	channel string
}

// NewHikvisionCamera creates a Hikvision camera. The snapshotChannel option
// (e.g. "101" for the main stream of channel 1) is required.
func NewHikvisionCamera(cfg Config, sniffer Sniffer, logger Logger) (*HikvisionCamera, error) {
	channel, err := cfg.Options.String(OptionSnapshotChannel)
	if err != nil {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "options." + OptionSnapshotChannel, Reason: "invalid value", Err: err}
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "options." + OptionSnapshotChannel, Reason: "is required for hikvision cameras"}
	}

	profile, err := NewProfile(cfg)
	if err != nil {
		return nil, err
	}

	c, err := newCapturer(profile, cfg.Options, sniffer, logger)
	if err != nil {
		return nil, err
	}

	return &HikvisionCamera{capturer: c, channel: channel}, nil
}

// Channel returns the ISAPI streaming channel
func (c *HikvisionCamera) Channel() string {
	return c.channel
}

// URL returns the ISAPI picture URL of the channel
func (c *HikvisionCamera) URL() string {
	return fmt.Sprintf("%s://%s/ISAPI/Streaming/channels/%s/picture", c.Protocol(), c.Host(), url.PathEscape(c.channel))
}

// CaptureImage implements Camera
func (c *HikvisionCamera) CaptureImage(ctx context.Context) ([]byte, error) {
	u := c.URL()
	c.logger.Printf("Capturing %s from Hikvision camera %s", u, c.ID())
	return c.fetch(ctx, u)
}

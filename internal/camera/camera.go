package camera

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// Camera is the capability every camera type provides
type Camera interface {
	ID() string
	Brand() string
	Model() string
	Host() string
	// SetCredentials changes the credentials used by the next capture
	SetCredentials(username, password string)
	// CaptureImage fetches a single still image
	CaptureImage(ctx context.Context) ([]byte, error)
}

// Logger receives diagnostic messages. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

func discardLogger() Logger {
	return log.New(io.Discard, "", 0)
}

// Profile holds the identity and connection attributes of a camera.
// Camera types embed it to provide ID, Brand, Model and Host.
type Profile struct {
	id       string
	brand    string
	model    string
	host     string
	protocol string
}

// NewProfile builds a profile from cfg, defaulting the protocol to http
func NewProfile(cfg Config) (Profile, error) {
	protocol := strings.ToLower(strings.TrimSpace(cfg.Protocol))
	switch protocol {
	case "":
		protocol = "http"
	case "http", "https":
	default:
		return Profile{}, &ConfigurationError{
			CameraID: cfg.ID,
			Field:    "protocol",
			Reason:   fmt.Sprintf("unsupported protocol %q (must be http or https)", cfg.Protocol),
		}
	}

	return Profile{
		id:       cfg.ID,
		brand:    cfg.Brand,
		model:    cfg.Model,
		host:     cfg.Host,
		protocol: protocol,
	}, nil
}

func (p Profile) ID() string       { return p.id }
func (p Profile) Brand() string    { return p.brand }
func (p Profile) Model() string    { return p.model }
func (p Profile) Host() string     { return p.host }
func (p Profile) Protocol() string { return p.protocol }

package snapshot

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
)

// Capturer captures a still by camera id. *camera.Manager satisfies it.
type Capturer interface {
	CaptureImage(ctx context.Context, id string) ([]byte, error)
}

// Proxy represents a snapshot proxy server
type Proxy struct {
	cameras  Capturer
	username string
	password string
	logger   camera.Logger
}

// NewProxy creates a new snapshot proxy. Empty credentials disable
// authentication.
func NewProxy(cameras Capturer, username, password string, logger camera.Logger) *Proxy {
	if logger == nil {
		logger = log.Default()
	}
	return &Proxy{
		cameras:  cameras,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Handler returns an HTTP handler for GET /snapshot/{id} requests
func (p *Proxy) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Only accept GET requests
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if !p.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="camsnap"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Extract camera id from path: /snapshot/{id}
		path := strings.TrimPrefix(r.URL.Path, "/snapshot/")
		cameraID := strings.TrimSuffix(path, "/")

		if cameraID == "" {
			http.Error(w, "camera id required", http.StatusBadRequest)
			return
		}

		// Validate camera id (prevent path traversal)
		if strings.Contains(cameraID, "/") || strings.Contains(cameraID, "..") || strings.Contains(cameraID, "\\") {
			p.logger.Printf("Invalid camera id attempted: %s", cameraID)
			http.Error(w, "invalid camera id", http.StatusBadRequest)
			return
		}

		data, err := p.cameras.CaptureImage(r.Context(), cameraID)
		if err != nil {
			status := statusFor(err)
			p.logger.Printf("Failed to get snapshot from %s: %v", cameraID, err)
			http.Error(w, http.StatusText(status), status)
			return
		}

		w.Header().Set("Content-Type", mimetype.Detect(data).String())
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func (p *Proxy) authorized(r *http.Request) bool {
	if p.username == "" && p.password == "" {
		return true
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}

	// Use constant-time comparison to prevent timing attacks
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(p.username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(p.password)) == 1
	return usernameMatch && passwordMatch
}

// statusFor maps camera error kinds to HTTP status codes
func statusFor(err error) int {
	var (
		notFound *camera.NotFoundError
		capErr   *camera.CaptureError
		invErr   *camera.InvalidResponseError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &capErr), errors.As(err, &invErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

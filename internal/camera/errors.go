package camera

import "fmt"

// ConfigurationError reports an invalid or incomplete camera configuration
type ConfigurationError struct {
	CameraID string
	Field    string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid camera configuration"
	if e.CameraID != "" {
		msg += fmt.Sprintf(" for %q", e.CameraID)
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DuplicateIDError is returned when a camera id is already taken
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("camera with id %q already exists", e.ID)
}

// NotFoundError is returned for lookups of unknown camera ids
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("camera not found: %s", e.ID)
}

// CaptureError reports a transport failure or a non-200 answer
type CaptureError struct {
	Brand      string
	Host       string
	URL        string
	StatusCode int
	Err        error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to capture image from %s camera at %s: %v", e.Brand, e.Host, e.Err)
	}
	return fmt.Sprintf("failed to capture image from %s camera at %s: unexpected status code: %d", e.Brand, e.Host, e.StatusCode)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// InvalidResponseError is returned when the camera answered with something
// that is not a supported image
type InvalidResponseError struct {
	Brand       string
	Host        string
	ContentType string
	// Sniffed is true when ContentType was detected from the body rather
	// than taken from the Content-Type header
	Sniffed bool
}

func (e *InvalidResponseError) Error() string {
	if e.Sniffed {
		return fmt.Sprintf("invalid response from %s camera at %s: body is %s, not an image", e.Brand, e.Host, e.ContentType)
	}
	return fmt.Sprintf("invalid response from %s camera at %s: unexpected Content-Type %q", e.Brand, e.Host, e.ContentType)
}

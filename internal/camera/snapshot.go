package camera

import (
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// maxSnapshotSize limits snapshot size to prevent memory exhaustion
	maxSnapshotSize = 10 * 1024 * 1024 // 10MB
)

// imageTypes are the MIME types accepted as a snapshot
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// imageContentType matches a declared Content-Type header when the body
// could not be sniffed
var imageContentType = regexp.MustCompile(`^image/(jpeg|png|gif|bmp)`)

// Sniffer detects a MIME type from the leading bytes of data
type Sniffer interface {
	Sniff(data []byte) string
}

// MimeSniffer sniffs with github.com/gabriel-vasile/mimetype
type MimeSniffer struct{}

// Sniff implements Sniffer. Subtypes of an accepted image type (animated
// PNG for instance) are reported as that type.
func (MimeSniffer) Sniff(data []byte) string {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if imageTypes[m.String()] {
			return m.String()
		}
	}
	return detected.String()
}

// detectImage reports whether data is an accepted image. The body is
// sniffed when a sniffer is available, otherwise the declared header is
// checked. It returns the type that was judged and whether it was sniffed.
func detectImage(sniffer Sniffer, data []byte, header string) (string, bool, bool) {
	if sniffer != nil {
		detected := sniffer.Sniff(data)
		if detected != "" {
			return detected, true, imageTypes[mediaType(detected)]
		}
	}
	return header, false, imageContentType.MatchString(header)
}

// mediaType strips parameters such as "; charset=utf-8"
func mediaType(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

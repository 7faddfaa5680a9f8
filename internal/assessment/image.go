package assessment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for data URLs that are not base64 images.
var ErrInvalidImage = errors.New("invalid image data")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageStore writes uploaded handwriting samples to a directory.
type ImageStore struct {
	dir string
	now func() time.Time
}

// NewImageStore returns a store rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir, now: time.Now}
}

// Save decodes a data:image/<fmt>;base64,... URL and returns the stored file
// name.
func (s *ImageStore) Save(email, dataURL string) (string, error) {
	format, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("handwriting_%s_%s_%s.%s",
		sanitize(email), s.now().Format("20060102150405"), uuid.NewString()[:8], format)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return name, nil
}

func decodeDataURL(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, "data:image") {
		return "", nil, fmt.Errorf("%w: not an image data URL", ErrInvalidImage)
	}
	header, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}

	mediaType, params, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if params != "base64" {
		return "", nil, fmt.Errorf("%w: payload is not base64", ErrInvalidImage)
	}
	_, format, ok := strings.Cut(mediaType, "/")
	format = sanitize(format)
	if !ok || format == "" {
		return "", nil, fmt.Errorf("%w: missing image format", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	return format, data, nil
}

func sanitize(s string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(s, "_"), "._")
}

package chat

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentBytes caps the size of a single image attachment.
const MaxAttachmentBytes = 20 << 20

var (
	// ErrNotImage is returned when attachment data is not a recognised image.
	ErrNotImage = errors.New("attachment is not an image")
	// ErrAttachmentTooLarge is returned when attachment data exceeds MaxAttachmentBytes.
	ErrAttachmentTooLarge = errors.New("attachment is too large")
)

// Attachment is an image supplied alongside text in a single user turn.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewAttachment sniffs data and returns an image attachment.
func NewAttachment(name string, data []byte) (*Attachment, error) {
	if len(data) > MaxAttachmentBytes {
		return nil, fmt.Errorf("%s: %w", name, ErrAttachmentTooLarge)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s (%s): %w", name, mimeType, ErrNotImage)
	}
	return &Attachment{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// LoadAttachment reads an image file from disk.
func LoadAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.Size() > MaxAttachmentBytes {
		return nil, fmt.Errorf("%s: %w", path, ErrAttachmentTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return NewAttachment(filepath.Base(path), data)
}

// DisplayURL returns a data URL suitable for rendering the image locally.
func (a *Attachment) DisplayURL() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ParseDataURL decodes a base64 data URL produced by DisplayURL.
// ok is false for any other kind of URL.
func ParseDataURL(url string) (mimeType string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	mimeType, found = strings.CutSuffix(meta, ";base64")
	if !found || mimeType == "" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mimeType, data, true
}

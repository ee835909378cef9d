package view

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes caps one inlined image.
const MaxImageBytes = 5 << 20

var (
	// ErrNotImage is returned for uploads whose content is not an image.
	ErrNotImage = errors.New("file is not an image")
	// ErrImageTooLarge is returned for uploads above MaxImageBytes.
	ErrImageTooLarge = errors.New("image is too large")
)

// DataURI inlines an uploaded image as a data: URI. The content type is
// sniffed from the bytes, not trusted from the upload.
func DataURI(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", ErrNotImage
	}
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(data)), nil
}

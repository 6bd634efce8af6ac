// Package classifier decides whether an HTTP response is an acceptable image
// based on its declared headers, before any body bytes are committed to.
package classifier

import (
	"strings"

	"imagefetch/internal/models"
)

// DefaultMaxSize is the payload cap: 10 MiB.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// extByType maps a content type to the file extension used when the URL path
// does not supply one. Unknown types fall back to ".jpg".
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/webp": ".webp",
}

// normalize lowercases a content type and strips parameters such as
// "; charset=utf-8".
func normalize(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsImage reports whether the declared content type names an image.
// The check is a hard gate: there is no content sniffing downstream, so a
// non-image type rejects the response outright.
func IsImage(contentType string) bool {
	return strings.HasPrefix(normalize(contentType), "image/")
}

// ExtensionFor returns the file extension for the declared content type.
func ExtensionFor(contentType string) string {
	if ext, ok := extByType[normalize(contentType)]; ok {
		return ext
	}
	return ".jpg"
}

// Check validates declared headers against the acceptance policy. declaredLen
// is -1 when the server omitted Content-Length; the size cap is then enforced
// later against actual bytes read, never trusted to the header alone.
func Check(contentType string, declaredLen, maxSize int64) *models.Error {
	if !IsImage(contentType) {
		return models.NewError(models.KindNotAnImage, "not an image (content type %q)", contentType)
	}
	if declaredLen > maxSize {
		return models.NewError(models.KindTooLarge,
			"image too large: %d bytes declared (limit %d)", declaredLen, maxSize)
	}
	return nil
}

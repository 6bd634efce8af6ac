// Package namer derives filesystem-safe, collision-free filenames for
// fetched images within a destination directory.
package namer

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/flytam/filenamify"

	"imagefetch/internal/models"
	"imagefetch/internal/modules/classifier"
)

// validExts are the extensions accepted as already identifying an image; a
// URL base name lacking one gets a synthesized name instead.
var validExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// Resolver produces unique filenames within a single destination directory.
type Resolver struct {
	dir string
	now func() time.Time
}

func New(dir string) *Resolver {
	return &Resolver{
		dir: dir,
		now: time.Now,
	}
}

// hasImageExt reports whether name ends in a recognized image extension.
func hasImageExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range validExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// sanitize reduces a candidate name to the safe character set
// [A-Za-z0-9._-]. Anything else, including path separators, is dropped.
// Returns "" if nothing safe remains or the result would be a dot name.
func sanitize(name string) string {
	// First pass: filenamify strips characters that are invalid in
	// filenames on common platforms (separators, reserved names, control
	// characters).
	safe, err := filenamify.Filenamify(name, filenamify.Options{Replacement: "_"})
	if err != nil {
		safe = name
	}

	var b strings.Builder
	for _, r := range safe {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}

// synthesize builds a name from the URL host, a timestamp, and the extension
// mapped from the content type, for URLs whose path yields no usable name.
func (r *Resolver) synthesize(u *url.URL, contentType string) string {
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		host = "downloaded_image"
	}
	return fmt.Sprintf("%s_%d%s", host, r.now().Unix(), classifier.ExtensionFor(contentType))
}

// Resolve derives a sanitized filename for the given source URL and content
// type, guaranteed absent from the destination directory at return time.
// Collisions get an incrementing numeric suffix before the extension.
func (r *Resolver) Resolve(rawURL, contentType string) (string, *models.Error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", models.WrapError(models.KindUnexpected, err, "unparseable url %q", rawURL)
	}

	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = ""
	}

	name := sanitize(base)
	if name == "" || !hasImageExt(name) {
		name = sanitize(r.synthesize(u, contentType))
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; r.exists(candidate); n++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}

	return candidate, nil
}

func (r *Resolver) exists(name string) bool {
	_, err := os.Stat(filepath.Join(r.dir, name))
	return err == nil
}

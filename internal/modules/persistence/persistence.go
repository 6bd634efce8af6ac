package persistence

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"imagefetch/internal/models"
)

// FilePersister writes accepted image payloads into the destination
// directory.
type FilePersister struct {
	dir string
}

const defaultDir = "fetched_images" // Default destination directory

// New creates a FilePersister with an optional custom directory.
func New(dir ...string) *FilePersister {
	d := defaultDir
	if len(dir) > 0 {
		d = dir[0]
	}
	return &FilePersister{dir: d}
}

// Dir returns the destination directory path.
func (fp *FilePersister) Dir() string {
	return fp.dir
}

// EnsureDir creates the destination directory, including intermediate
// directories, if it does not exist.
func (fp *FilePersister) EnsureDir() error {
	return os.MkdirAll(fp.dir, 0755)
}

// Save writes data under the given filename. The write goes to a temp file
// in the same directory first and is renamed into place, so a crash mid-write
// never leaves a partial file visible under the final name. Returns the full
// path of the saved file.
func (fp *FilePersister) Save(name string, data []byte, logger *zap.Logger) (string, *models.Error) {
	dest := filepath.Join(fp.dir, name)

	tmp, err := os.CreateTemp(fp.dir, ".imagefetch-*")
	if err != nil {
		return "", models.WrapError(models.KindFilesystem, err, "failed to create temp file in %s", fp.dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", models.WrapError(models.KindFilesystem, err, "failed to write %s", dest)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", models.WrapError(models.KindFilesystem, err, "failed to close temp file for %s", dest)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", models.WrapError(models.KindFilesystem, err, "failed to set mode on %s", dest)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", models.WrapError(models.KindFilesystem, err, "failed to move file into place at %s", dest)
	}

	logger.Debug("persisted file",
		zap.String("path", dest),
		zap.Int("bytes", len(data)))
	return dest, nil
}

// CountFiles returns the number of regular files currently in the
// destination directory.
func (fp *FilePersister) CountFiles() (int, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			count++
		}
	}
	return count, nil
}

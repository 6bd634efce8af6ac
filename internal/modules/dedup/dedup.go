// Package dedup tracks content fingerprints so byte-identical images are
// stored only once per destination directory.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// seedWorkers bounds the goroutines hashing existing files at startup.
const seedWorkers = 4

// Index is the in-memory fingerprint set. It is seeded once from the files
// already on disk and grown by every accepted payload during the run. It is
// never persisted; a restart rebuilds it by rescanning the directory.
type Index struct {
	mtx  sync.Mutex
	seen map[string]struct{}
}

func NewIndex() *Index {
	return &Index{
		seen: map[string]struct{}{},
	}
}

// Fingerprint returns the hex-encoded SHA-256 digest of the payload. The
// startup scan and the recording path use this same digest.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Seed hashes every regular file in dir and records the fingerprints.
// Individual unreadable files are logged and skipped; only a failure to list
// the directory itself is an error.
func (ix *Index) Seed(ctx context.Context, dir string, logger *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("skipping unreadable file during fingerprint scan",
					zap.String("path", path),
					zap.Error(err))
				return nil
			}
			ix.record(Fingerprint(data))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("fingerprint index seeded",
		zap.String("dir", dir),
		zap.Int("fingerprints", ix.Len()))
	return nil
}

// IsDuplicate reports whether the payload's fingerprint is already recorded.
// A new fingerprint is recorded as a side effect, so a later byte-identical
// payload reports true.
func (ix *Index) IsDuplicate(data []byte) bool {
	fp := Fingerprint(data)

	ix.mtx.Lock()
	defer ix.mtx.Unlock()

	if _, ok := ix.seen[fp]; ok {
		return true
	}
	ix.seen[fp] = struct{}{}
	return false
}

// Len returns the number of recorded fingerprints.
func (ix *Index) Len() int {
	ix.mtx.Lock()
	defer ix.mtx.Unlock()
	return len(ix.seen)
}

func (ix *Index) record(fp string) {
	ix.mtx.Lock()
	defer ix.mtx.Unlock()
	ix.seen[fp] = struct{}{}
}

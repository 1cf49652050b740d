// Package cache persists normalized source records between runs so that
// repeated merges over unchanged inputs skip the parse and normalize work.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nha-facilities/internal/source"
)

// entry is the on-disk payload. Records and stats travel together so a
// cache hit reproduces the load accounting exactly.
type entry struct {
	Records []source.Record
	Stats   source.LoadStats
}

// Cache stores per-source normalized records keyed by a content hash of
// the input file plus the normalization-relevant settings. A stale key is
// simply a miss; old entries are left behind and can be cleaned manually.
type Cache struct {
	dir string
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Key hashes the input file content together with the settings that shape
// normalization. Any change to either yields a different key.
func (c *Cache) Key(src source.SourceID, path string, settings string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	h.Write([]byte(settings))
	return fmt.Sprintf("%s-%s", src, hex.EncodeToString(h.Sum(nil))[:16]), nil
}

// Load returns the cached records for key, or ok=false on a miss. A
// corrupt entry is treated as a miss, not an error.
func (c *Cache) Load(key string) ([]source.Record, *source.LoadStats, bool) {
	file, err := os.Open(c.path(key))
	if err != nil {
		return nil, nil, false
	}
	defer file.Close()

	var e entry
	if err := gob.NewDecoder(file).Decode(&e); err != nil {
		return nil, nil, false
	}
	return e.Records, &e.Stats, true
}

// Store writes the records for key. Written via a temp file and rename so
// a crash mid-write never leaves a half-entry behind.
func (c *Cache) Store(key string, records []source.Record, stats *source.LoadStats) error {
	tmp, err := os.CreateTemp(c.dir, "cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	e := entry{Records: records, Stats: *stats}
	if err := gob.NewEncoder(tmp).Encode(&e); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".gob")
}

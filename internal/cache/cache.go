// Package cache persists extracted classes between runs so unchanged files
// are not parsed again.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/hoist/pkg/models"
	"github.com/zeebo/blake3"
)

// formatVersion is bumped whenever the extractor output changes shape.
const formatVersion = "1"

// Cache is a file-backed store of extracted classes keyed by file path and
// validated by content hash. It is safe for concurrent use.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached file.
type Entry struct {
	Version   string              `json:"version"`
	Path      string              `json:"path"`
	Hash      string              `json:"hash"`
	Timestamp time.Time           `json:"timestamp"`
	Classes   []*models.ClassUnit `json:"classes"`
}

// New creates a cache rooted at dir. A disabled cache misses on every Get
// and ignores every Put.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the classes cached for path when content is unchanged and the
// entry has not expired. Returned units are linked and owned by the caller.
func (c *Cache) Get(path string, content []byte) ([]*models.ClassUnit, bool) {
	if !c.enabled {
		return nil, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Version != formatVersion || entry.Path != path || entry.Hash != HashBytes(content) {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(file)
		return nil, false
	}

	for _, cls := range entry.Classes {
		cls.Link()
	}
	return entry.Classes, true
}

// Put stores the classes extracted from content at path.
func (c *Cache) Put(path string, content []byte, classes []*models.ClassUnit) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(Entry{
		Version:   formatVersion,
		Path:      path,
		Hash:      HashBytes(content),
		Timestamp: time.Now(),
		Classes:   classes,
	})
	if err != nil {
		return err
	}

	// Write then rename so concurrent readers never see a partial entry.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(path))
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath maps a source path to its entry file.
func (c *Cache) keyPath(path string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(path)))
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{}
	if !c.enabled {
		return stats, nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var oldest time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}
	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	return stats, nil
}

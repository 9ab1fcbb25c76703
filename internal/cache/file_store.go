package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelume/tutorialcast/pkg/file"
	"github.com/avelume/tutorialcast/pkg/log"
)

// FileStore keeps one JSON file per fingerprint under a directory. Writes go
// through a temp file and rename, so a crashed run never leaves a
// half-written entry behind.
type FileStore struct {
	dir string
	ttl time.Duration
}

func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := file.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, ttl: ttl}, nil
}

func (s *FileStore) path(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}

// Get loads the entry for fingerprint. Missing, unreadable, corrupt, or
// stale entries all report a miss.
func (s *FileStore) Get(_ context.Context, fingerprint string, now time.Time) (Entry, bool, error) {
	data, err := os.ReadFile(s.path(fingerprint))
	if err != nil {
		return Entry{}, false, nil
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Warn("Discarding corrupt cache entry %s: %v", fingerprint, err)
		return Entry{}, false, nil
	}
	e.Fingerprint = fingerprint

	if !e.Fresh(now, s.ttl) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *FileStore) Put(_ context.Context, e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return file.WriteAtomic(s.path(e.Fingerprint), data, 0o644)
}

// Sweep deletes entry files older than the freshness window.
func (s *FileStore) Sweep(_ context.Context, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, de.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e Entry
		stale := json.Unmarshal(data, &e) != nil || !e.Fresh(now, s.ttl)
		if !stale {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove stale cache entry %s: %v", de.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *FileStore) Close() error {
	return nil
}

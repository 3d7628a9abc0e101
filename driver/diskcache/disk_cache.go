package diskcache

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-proxy/domain"
	"media-proxy/utils/errors"
	"media-proxy/utils/logger"
	"media-proxy/utils/metrics"
)

// Store is the on-disk, content-addressed cache of raw origin bytes. Files
// are named <sha1(url)>.<ext> under the cache directory. The store keeps an
// in-memory access index so the age sweep never has to stat every file on
// the hot path.
type Store struct {
	dir      string
	maxBytes int64 // 0 = unbounded
	metrics  *metrics.ProxyMetrics

	mu         sync.Mutex
	accessed   map[string]time.Time // url hash -> last access
	totalBytes int64
}

// NewStore creates the cache directory if needed and rebuilds the size
// accounting from whatever survived a restart.
func NewStore(dir string, maxBytes int64, m *metrics.ProxyMetrics) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewDiskIOContextError(
			"failed to create cache directory",
			"driver", "diskcache", "new_store",
			err,
			map[string]interface{}{"dir": dir},
		)
	}

	s := &Store{
		dir:      dir,
		maxBytes: maxBytes,
		metrics:  m,
		accessed: make(map[string]time.Time),
	}

	// Best effort: size accounting survives restarts, access times restart
	// from file mtimes.
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			s.totalBytes += info.Size()
			s.accessed[hashFromFilename(entry.Name())] = info.ModTime()
		}
	}

	return s, nil
}

// Get returns the cached origin bytes for rawURL without network access,
// or found=false on a disk miss.
func (s *Store) Get(ctx context.Context, rawURL string) (*domain.OriginImage, bool, error) {
	hash := domain.URLHash(rawURL)

	path, ok := s.findFile(hash)
	if !ok {
		if s.metrics != nil {
			s.metrics.CacheMisses.WithLabelValues("disk").Inc()
		}
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.NewDiskIOContextError(
			"failed to read cached image",
			"driver", "diskcache", "get",
			err,
			map[string]interface{}{"path": path},
		)
	}

	s.mu.Lock()
	s.accessed[hash] = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues("disk").Inc()
	}

	return &domain.OriginImage{
		URL:         rawURL,
		ContentType: contentTypeFromPath(path),
		Data:        data,
		Size:        len(data),
		FetchedAt:   time.Now(),
	}, true, nil
}

// Save persists origin bytes for rawURL. The write goes to a temp file
// first and is renamed into place so no partial file is ever observable.
// Last writer wins on the same hash; content for a given URL is idempotent.
func (s *Store) Save(ctx context.Context, rawURL string, img *domain.OriginImage) error {
	hash := domain.URLHash(rawURL)
	ext := domain.FileExtension(rawURL)
	path := filepath.Join(s.dir, hash+"."+ext)

	tmp, err := os.CreateTemp(s.dir, hash+".tmp-*")
	if err != nil {
		return errors.NewDiskIOContextError(
			"failed to create temp file",
			"driver", "diskcache", "save",
			err,
			map[string]interface{}{"dir": s.dir},
		)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewDiskIOContextError(
			"failed to write cached image",
			"driver", "diskcache", "save",
			err,
			map[string]interface{}{"path": tmpName},
		)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewDiskIOContextError(
			"failed to close temp file",
			"driver", "diskcache", "save",
			err,
			map[string]interface{}{"path": tmpName},
		)
	}
	// An overwrite replaces the old file's bytes, so the accounting must
	// drop them or repeated saves for one URL inflate the total.
	var replaced int64
	if info, err := os.Stat(path); err == nil {
		replaced = info.Size()
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewDiskIOContextError(
			"failed to move cached image into place",
			"driver", "diskcache", "save",
			err,
			map[string]interface{}{"path": path},
		)
	}

	s.mu.Lock()
	s.accessed[hash] = time.Now()
	s.totalBytes += int64(len(img.Data)) - replaced
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	s.mu.Unlock()

	if s.maxBytes > 0 {
		s.enforceSizeCap(ctx)
	}

	return nil
}

// CleanupOld deletes files whose last access exceeds maxAge and returns the
// count removed. Files unknown to the index (pre-restart leftovers) fall
// back to their modification time.
func (s *Store) CleanupOld(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.NewDiskIOContextError(
			"failed to scan cache directory",
			"driver", "diskcache", "cleanup_old",
			err,
			map[string]interface{}{"dir": s.dir},
		)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}

		hash := hashFromFilename(entry.Name())

		s.mu.Lock()
		lastAccess, known := s.accessed[hash]
		s.mu.Unlock()

		if !known {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			lastAccess = info.ModTime()
		}

		if lastAccess.After(cutoff) {
			continue
		}

		if err := s.removeFile(entry.Name(), hash); err != nil {
			logger.SafeWarnContext(ctx, "failed to remove expired cache file",
				"file", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

// TotalBytes returns the tracked aggregate size of the disk tier.
func (s *Store) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes
}

// enforceSizeCap evicts oldest-accessed files until under maxBytes.
func (s *Store) enforceSizeCap(ctx context.Context) {
	for {
		s.mu.Lock()
		over := s.totalBytes > s.maxBytes
		var oldestHash string
		var oldestTime time.Time
		if over {
			for hash, at := range s.accessed {
				if oldestHash == "" || at.Before(oldestTime) {
					oldestHash = hash
					oldestTime = at
				}
			}
		}
		s.mu.Unlock()

		if !over || oldestHash == "" {
			return
		}

		path, ok := s.findFile(oldestHash)
		if !ok {
			// Index entry without a file; drop it so the loop terminates.
			s.mu.Lock()
			delete(s.accessed, oldestHash)
			s.mu.Unlock()
			continue
		}
		if err := s.removeFile(filepath.Base(path), oldestHash); err != nil {
			logger.SafeWarnContext(ctx, "failed to evict cache file for size cap",
				"file", path, "error", err)
			return
		}
	}
}

func (s *Store) removeFile(name, hash string) error {
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.accessed, hash)
	s.totalBytes -= info.Size()
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	s.mu.Unlock()
	return nil
}

// findFile locates the cached file for a hash regardless of extension.
func (s *Store) findFile(hash string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.dir, hash+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	// Skip in-flight temp files.
	for _, m := range matches {
		if !strings.Contains(filepath.Base(m), ".tmp-") {
			return m, true
		}
	}
	return "", false
}

func hashFromFilename(name string) string {
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		return name[:idx]
	}
	return name
}

func contentTypeFromPath(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "image/jpeg"
}

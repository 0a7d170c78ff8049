// Package graphcache stores published graph snapshots under version keys and
// tracks the active-version pointer. Snapshots are gob files on disk with an
// LRU layer in front so the route-search read path stays off the filesystem.
package graphcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"github.com/taigatrans/routegrid/model"
)

// ErrNoVersion is returned when no graph version has been published yet.
var ErrNoVersion = errors.New("graphcache: no version set")

const versionPointerFile = "CURRENT"

// Store is the cache-backed graph repository.
type Store struct {
	dir   string
	lru   gcache.Cache
	loads singleflight.Group
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, lruSize int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if lruSize <= 0 {
		lruSize = 4
	}
	return &Store{
		dir: dir,
		lru: gcache.New(lruSize).LRU().Build(),
	}, nil
}

func (s *Store) snapshotPath(version string) string {
	return filepath.Join(s.dir, version+".graph.gob")
}

// SaveGraph writes a snapshot under its version key. The write goes through a
// temp file and rename so a crashed writer never leaves a torn snapshot.
// Published versions are immutable; overwriting an existing version is an
// error.
func (s *Store) SaveGraph(ctx context.Context, snap model.GraphSnapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.snapshotPath(snap.Version)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("graphcache: version %s already published", snap.Version)
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, "snapshot-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	_ = s.lru.Set(snap.Version, snap)
	return path, nil
}

// Graph loads a snapshot by version: LRU first, then disk, with concurrent
// loads for the same version coalesced into one read.
func (s *Store) Graph(ctx context.Context, version string) (model.GraphSnapshot, error) {
	if v, err := s.lru.Get(version); err == nil {
		return v.(model.GraphSnapshot), nil
	}
	v, err, _ := s.loads.Do(version, func() (any, error) {
		data, err := os.ReadFile(s.snapshotPath(version))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("graphcache: version %s: %w", version, fs.ErrNotExist)
		}
		if err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		_ = s.lru.Set(version, snap)
		return snap, nil
	})
	if err != nil {
		return model.GraphSnapshot{}, err
	}
	return v.(model.GraphSnapshot), nil
}

// SetVersion atomically flips the current-version pointer.
func (s *Store) SetVersion(ctx context.Context, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "current-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(version + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, versionPointerFile))
}

// Version reads the current-version pointer.
func (s *Store) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, versionPointerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoVersion
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

package digestfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// WatermarkStore is a durable, project-keyed single-value store recording the
// timestamp of the last event already written to a digest.
//
// Load reports found=false for a project that has never been flushed AND for
// a record that exists but cannot be read or decoded: missing-or-corrupt is
// treated as "never flushed" by contract, never as a fatal error. Save
// overwrites unconditionally; the flush engine only calls it with
// monotonically non-decreasing values per project.
type WatermarkStore interface {
	Load(projectID string) (lastFlushed int64, found bool, err error)
	Save(projectID string, lastFlushed int64) error
}

type WatermarkStoreFactory func(dsn string) (WatermarkStore, error)

var watermarkFactoryRegistry = struct {
	mu        sync.RWMutex
	factories map[string]WatermarkStoreFactory
}{
	factories: map[string]WatermarkStoreFactory{},
}

func RegisterWatermarkStoreFactory(scheme string, factory WatermarkStoreFactory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	watermarkFactoryRegistry.mu.Lock()
	defer watermarkFactoryRegistry.mu.Unlock()
	watermarkFactoryRegistry.factories[scheme] = factory
}

func lookupWatermarkStoreFactory(scheme string) (WatermarkStoreFactory, bool) {
	scheme = normalizeScheme(scheme)
	watermarkFactoryRegistry.mu.RLock()
	defer watermarkFactoryRegistry.mu.RUnlock()
	factory, ok := watermarkFactoryRegistry.factories[scheme]
	return factory, ok
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}

// BuildWatermarkStoreFromDSN resolves a watermark backend from a DSN.
// Supported schemes: file (per-project watermark.json under a root
// directory), memory, postgres, sqlite. Registered factories take precedence
// over the built-in schemes.
func BuildWatermarkStoreFromDSN(dsn string) (WatermarkStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupWatermarkStoreFactory(scheme); ok {
		return factory(dsn)
	}
	switch scheme {
	case "", "file":
		root, pathErr := dsnPath(parsed, dsn)
		if pathErr != nil {
			return nil, pathErr
		}
		return NewDirWatermarkStore(root), nil
	case "memory", "mem", "inmem":
		return NewInMemoryWatermarkStore(), nil
	case "postgres", "postgresql":
		return NewPostgresWatermarkStore(dsn)
	case "sqlite":
		path, pathErr := dsnPath(parsed, dsn)
		if pathErr != nil {
			return nil, pathErr
		}
		return NewSQLiteWatermarkStore(path)
	default:
		return nil, fmt.Errorf("unsupported watermark store scheme: %s", scheme)
	}
}

func dsnPath(parsed *url.URL, raw string) (string, error) {
	if parsed == nil {
		return "", ErrInvalidInput
	}
	if strings.TrimSpace(parsed.Scheme) == "" {
		if strings.TrimSpace(raw) == "" {
			return "", ErrInvalidInput
		}
		return strings.TrimSpace(raw), nil
	}
	path := strings.TrimSpace(parsed.Path)
	if path == "" {
		path = strings.TrimSpace(parsed.Opaque)
	}
	if path == "" {
		path = strings.TrimSpace(parsed.Host)
	}
	if path == "" {
		return "", ErrInvalidInput
	}
	return path, nil
}

type watermarkRecord struct {
	LastFlushed int64 `json:"lastFlushed"`
}

// DirWatermarkStore keeps one watermark.json per project directory under the
// output root. This matches the on-disk layout downstream tooling expects:
// <root>/<projectID>/watermark.json containing {"lastFlushed":<ms>}.
type DirWatermarkStore struct {
	root string
}

func NewDirWatermarkStore(root string) *DirWatermarkStore {
	return &DirWatermarkStore{root: root}
}

func (s *DirWatermarkStore) path(projectID string) string {
	return filepath.Join(s.root, projectID, "watermark.json")
}

func (s *DirWatermarkStore) Load(projectID string) (int64, bool, error) {
	if s == nil || strings.TrimSpace(projectID) == "" {
		return 0, false, nil
	}
	data, err := os.ReadFile(s.path(projectID))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return 0, false, err
		}
		return 0, false, nil
	}
	var record watermarkRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Corrupt record: treated as never flushed.
		return 0, false, nil
	}
	return record.LastFlushed, true, nil
}

func (s *DirWatermarkStore) Save(projectID string, lastFlushed int64) error {
	if s == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(projectID) == "" {
		return ErrInvalidInput
	}
	dir := filepath.Join(s.root, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(watermarkRecord{LastFlushed: lastFlushed})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "watermark.json"), data, 0o644)
}

type InMemoryWatermarkStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewInMemoryWatermarkStore() *InMemoryWatermarkStore {
	return &InMemoryWatermarkStore{values: map[string]int64{}}
}

func (s *InMemoryWatermarkStore) Load(projectID string) (int64, bool, error) {
	if s == nil {
		return 0, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[projectID]
	return value, ok, nil
}

func (s *InMemoryWatermarkStore) Save(projectID string, lastFlushed int64) error {
	if s == nil {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[projectID] = lastFlushed
	return nil
}

package localstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/templui/hydrate/internal/apperror"
)

// Keys of the per-user state documents.
const (
	KeySession        = "session"
	KeyUsers          = "users"
	KeyProfile        = "profile"
	KeyHistory        = "history"
	KeyToday          = "today"
	KeyAchievements   = "achievements"
	KeyStats          = "stats"
	KeySound          = "sound"
	KeyRecentActivity = "recent_activity"
	KeyReminder       = "reminder"
)

var (
	ErrKeyNotFound = errors.New("state key not found")
	ErrInvalidKey  = errors.New("invalid state key")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Store persists small JSON documents by key.
type Store interface {
	Load(key string, v any) error
	Save(key string, v any) error
	Delete(key string) error
	Keys() ([]string, error)
}

// FileStore keeps one JSON file per key inside dir. Writes go through a temp
// file and rename so a crash never leaves a half-written document.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, apperror.Storage("failed to create state directory", err).WithMeta("dir", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Load(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrKeyNotFound
	}
	if err != nil {
		return apperror.Storage("failed to read state", err).WithMeta("key", key)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return apperror.Storage("failed to decode state", err).WithMeta("key", key)
	}
	return nil
}

func (s *FileStore) Save(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperror.Storage("failed to encode state", err).WithMeta("key", key)
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return apperror.Storage("failed to write state", err).WithMeta("key", key)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperror.Storage("failed to delete state", err).WithMeta("key", key)
	}
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperror.Storage("failed to list state", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(keys)
	return keys, nil
}

// MemoryStore is a Store for tests and for users without a state directory.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string, v any) error {
	s.mu.Lock()
	data, ok := s.docs[key]
	s.mu.Unlock()

	if !ok {
		return ErrKeyNotFound
	}
	err := json.Unmarshal(data, v)
	if err != nil {
		return apperror.Storage("failed to decode state", err).WithMeta("key", key)
	}
	return nil
}

func (s *MemoryStore) Save(key string, v any) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.Storage("failed to encode state", err).WithMeta("key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = data
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// LoadOr reads key into v. A missing key leaves v untouched and reports
// false; any other failure is logged and treated the same way so callers keep
// their in-memory defaults.
func LoadOr(store Store, logger *slog.Logger, key string, v any) bool {
	err := store.Load(key, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrKeyNotFound) {
		logger.Warn("failed to load local state, using defaults", "key", key, "error", err)
	}
	return false
}

// SaveOrLog writes v and logs instead of returning a failure.
func SaveOrLog(store Store, logger *slog.Logger, key string, v any) {
	err := store.Save(key, v)
	if err != nil {
		logger.Warn("failed to save local state", "key", key, "error", err)
	}
}

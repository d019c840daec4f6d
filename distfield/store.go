package distfield

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pthm-cable/mcl/world"
)

// ErrNotFound is returned by a Store that holds nothing for a key.
var ErrNotFound = errors.New("distfield: not cached")

// Key identifies a cached field.
type Key struct {
	MapName string
	Factor  float64
}

// String renders the key as a file-name-safe token.
func (k Key) String() string {
	return sanitize(k.MapName) + "_" + strconv.FormatFloat(k.Factor, 'g', -1, 64)
}

func sanitize(name string) string {
	out := []byte(name)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Store persists fields between runs.
type Store interface {
	Load(Key) (*Field, error)
	Save(Key, *Field) error
}

// MemoryStore keeps fields in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	fields map[Key]*Field
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fields: make(map[Key]*Field)}
}

func (s *MemoryStore) Load(k Key) (*Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[k]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *MemoryStore) Save(k Key, f *Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[k] = f
	return nil
}

// Len returns the number of cached fields.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// LoadOrBuild returns the cached field for m at factor, building and saving
// it on a miss. A cached grid built from different wall geometry counts as a
// miss. Store failures are logged and never fail the call; only invalid
// build inputs do. store may be nil.
func LoadOrBuild(store Store, m *world.Map, factor float64) (*Field, error) {
	key := Key{MapName: m.Name, Factor: factor}
	fp := m.Fingerprint()

	if store != nil {
		f, err := store.Load(key)
		switch {
		case err == nil && f.Fingerprint == fp:
			slog.Debug("distance field cache hit", "key", key.String())
			return f, nil
		case err == nil:
			slog.Warn("distance field cache stale, rebuilding", "key", key.String())
		case errors.Is(err, ErrNotFound):
		default:
			slog.Warn("distance field cache load failed, rebuilding", "key", key.String(), "error", err)
		}
	}

	start := time.Now()
	f, err := Build(m, factor)
	if err != nil {
		return nil, fmt.Errorf("building distance field for %q: %w", m.Name, err)
	}
	rows, cols := f.Dims()
	slog.Info("distance field built",
		"map", m.Name,
		"factor", factor,
		"rows", rows,
		"cols", cols,
		"elapsed", time.Since(start),
	)

	if store != nil {
		if err := store.Save(key, f); err != nil {
			slog.Warn("distance field cache save failed", "key", key.String(), "error", err)
		}
	}
	return f, nil
}

// OpenStore opens a store by backend name. For "file" path is a directory,
// for "sqlite" a database file; "memory" and "" ignore it. "none" disables
// caching and returns a nil Store.
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		fs, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "sqlite":
		ss, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return ss, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown distance field store %q", backend)
	}
}

// CloseStore closes s if it holds resources.
func CloseStore(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

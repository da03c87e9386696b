// Package assets resolves, caches and decodes the viewer's input files.
package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager resolves asset paths against layered file systems.
type Manager struct {
	sources []fs.FS
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddSource adds a file system to the manager.
// Sources are searched in reverse order (last added = highest priority).
func (m *Manager) AddSource(fsys fs.FS) {
	m.mu.Lock()
	m.sources = append(m.sources, fsys)
	m.mu.Unlock()
}

// AddDir adds a directory on disk as a source.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset dir %s: not a directory", dir)
	}
	m.AddSource(os.DirFS(dir))
	return nil
}

// Sources returns the number of registered sources.
func (m *Manager) Sources() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// Cache returns the byte cache shared by loads.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Clean converts a user supplied path into an fs.FS path.
func Clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// Open implements fs.FS over the layered sources.
func (m *Manager) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		f, err := m.sources[i].Open(name)
		if err == nil {
			return f, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Load loads a file from the sources.
func (m *Manager) Load(name string) ([]byte, error) {
	name = Clean(name)

	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	f, err := m.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	m.cache.Set(name, data)
	return data, nil
}

// Close drops all sources and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sources = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

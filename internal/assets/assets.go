// Package assets handles texture loading and caching for terrain projects.
// Textures are looked up in directories first, then in GRF archives.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/pkg/encoding"
	"github.com/Faultbox/midgard-terrain/pkg/grf"
)

// ErrNotFound is returned when no root or archive holds the requested file.
var ErrNotFound = errors.New("texture not found")

// Manager loads textures from a list of directories.
type Manager struct {
	roots    []string
	archives []*grf.Archive
	cache    *Cache
	mu       sync.RWMutex
}

// NewManager creates a manager searching the given roots.
func NewManager(roots ...string) *Manager {
	return &Manager{
		roots: roots,
		cache: NewCache(),
	}
}

// AddRoot adds a directory to search.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) {
	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()
}

// AddFallbackRoot adds a directory searched after every existing root.
func (m *Manager) AddFallbackRoot(dir string) {
	m.mu.Lock()
	m.roots = append([]string{dir}, m.roots...)
	m.mu.Unlock()
}

// AddArchive adds a GRF archive searched after every directory.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()
	return nil
}

// Resolve returns the file a relative path refers to. Absolute paths are
// returned unchanged if they exist.
func (m *Manager) Resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		full := filepath.Join(m.roots[i], path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Load decodes a texture, returning the cached image when the same file was
// loaded before. Callers must not modify the returned image.
func (m *Manager) Load(path string) (*texture.Image, error) {
	full, err := m.Resolve(path)
	if err != nil {
		return m.loadArchived(path)
	}
	if img, ok := m.cache.Get(full); ok {
		return img, nil
	}

	img, err := texture.Load(full)
	if err != nil {
		return nil, err
	}
	m.cache.Set(full, img)
	return img, nil
}

func (m *Manager) loadArchived(path string) (*texture.Image, error) {
	key := "grf:" + encoding.NormalizeGRFPath(path)
	if img, ok := m.cache.Get(key); ok {
		return img, nil
	}

	data, err := m.ReadArchived(path)
	if err != nil {
		return nil, err
	}
	img, err := texture.Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	m.cache.Set(key, img)
	return img, nil
}

// ReadArchived reads a raw file from the archives.
func (m *Manager) ReadArchived(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		if m.archives[i].Contains(path) {
			return m.archives[i].Read(path)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Close closes all archives and drops the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.cache.Clear()
}

// Cache returns the decoded texture cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Cache is a simple in-memory cache for decoded textures.
type Cache struct {
	data map[string]*texture.Image
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*texture.Image),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*texture.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img *texture.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*texture.Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

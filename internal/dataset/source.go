package dataset

import (
	"fmt"
	"os"
	"sync"
)

// Source yields a cleaned table.
type Source interface {
	Load() (*Table, error)
}

// Preparer is a Source that runs Prepare on every Load.
type Preparer struct {
	Path    string
	Options Options
}

// NewPreparer returns a Source for path.
func NewPreparer(path string, opt Options) *Preparer {
	return &Preparer{Path: path, Options: opt}
}

func (p *Preparer) Load() (*Table, error) {
	return Prepare(p.Path, p.Options)
}

// Static is a Source over an already cleaned table.
type Static struct{ T *Table }

func (s Static) Load() (*Table, error) {
	if s.T == nil {
		return nil, ErrEmptyTable
	}
	return s.T, nil
}

type fileKey struct {
	size    int64
	modTime int64
}

// Cache memoizes a Preparer until the input file changes size or mod time.
// Callers must treat the returned table as read-only.
type Cache struct {
	src *Preparer

	mu    sync.Mutex
	key   fileKey
	table *Table
	hits  int
}

// NewCache wraps p.
func NewCache(p *Preparer) *Cache {
	return &Cache{src: p}
}

func (c *Cache) Load() (*Table, error) {
	st, err := os.Stat(c.src.Path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	key := fileKey{size: st.Size(), modTime: st.ModTime().UnixNano()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table != nil && c.key == key {
		c.hits++
		return c.table, nil
	}
	t, err := c.src.Load()
	if err != nil {
		return nil, err
	}
	c.key, c.table = key, t
	return t, nil
}

// Hits reports how many loads were served from memory.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

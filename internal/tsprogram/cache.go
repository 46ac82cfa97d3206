// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of parsed files a Cache retains.
const DefaultCacheSize = 2048

// Cache keeps parsed files between Program builds so that unchanged files
// are not re-parsed. Entries are keyed by absolute path and validated
// against a content hash. A Cache is safe for concurrent use.
type Cache struct {
	files *lru.Cache[string, *SourceFile]
}

// NewCache creates a parse cache holding at most size files. A size <= 0
// uses DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, *SourceFile](size)
	if err != nil {
		return nil, err
	}
	return &Cache{files: files}, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int { return c.files.Len() }

func (c *Cache) get(path string, sum [sha256.Size]byte) (*SourceFile, bool) {
	if c == nil {
		return nil, false
	}
	f, ok := c.files.Get(path)
	if !ok || f.sum != sum {
		return nil, false
	}
	return f, true
}

func (c *Cache) add(f *SourceFile) {
	if c == nil {
		return
	}
	c.files.Add(f.Path, f)
}

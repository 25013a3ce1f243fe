// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"strings"
	"sync"
)

// Cache holds search results by lower-cased keyword plus the set of
// asset IDs already downloaded to disk. Safe under concurrent scene
// processing: many readers, mutating writers.
type Cache struct {
	mu         sync.RWMutex
	byKeyword  map[string][]Asset
	downloaded map[string]string // asset ID -> local path
}

// NewCache returns an empty asset cache.
func NewCache() *Cache {
	return &Cache{
		byKeyword:  make(map[string][]Asset),
		downloaded: make(map[string]string),
	}
}

// Put stores search results for a keyword, replacing prior results.
func (c *Cache) Put(keyword string, assets []Asset) {
	key := strings.ToLower(keyword)
	c.mu.Lock()
	c.byKeyword[key] = assets
	c.mu.Unlock()
}

// Get returns the cached assets for a keyword.
func (c *Cache) Get(keyword string) ([]Asset, bool) {
	key := strings.ToLower(keyword)
	c.mu.RLock()
	assets, ok := c.byKeyword[key]
	c.mu.RUnlock()
	return assets, ok
}

// All returns the union of every cached asset, deduplicated by ID.
func (c *Cache) All() []Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []Asset
	for _, assets := range c.byKeyword {
		for _, a := range assets {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// MarkDownloaded records the local path of a fetched asset.
func (c *Cache) MarkDownloaded(id, path string) {
	c.mu.Lock()
	c.downloaded[id] = path
	c.mu.Unlock()
}

// DownloadedPath returns the local path for an asset, if fetched.
func (c *Cache) DownloadedPath(id string) (string, bool) {
	c.mu.RLock()
	path, ok := c.downloaded[id]
	c.mu.RUnlock()
	return path, ok
}

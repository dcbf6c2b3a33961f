// Package tree maintains the incrementally-populated cache of remote items.
// It is the single source of truth for what has been fetched from a
// connected data source.
package tree

import (
	"github.com/sourcehub/connectkit/pkg/models"
)

// Cache is an append/merge-only tree of remote items. Nodes are never
// deleted within a session; the whole cache is reset on account switch.
//
// External ids are only unique within a parent's child list, so every merge
// walks the current navigation path level by level instead of searching the
// tree globally. A global search could land on a sibling branch that shares
// an id with the target.
type Cache struct {
	root []*models.RemoteItem
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Reset drops everything. Called when the active account changes or the
// server re-synced the source.
func (c *Cache) Reset() {
	c.root = nil
}

// MergeRoot appends freshly fetched root-level items, de-duplicating by
// external id. Overlapping scroll triggers can fetch the same page twice;
// de-dup keeps the merge idempotent.
func (c *Cache) MergeRoot(items []*models.RemoteItem) {
	c.root = appendDedup(c.root, items)
}

// MergeAt merges a page of children into the node addressed by path. The
// path is the navigation stack including the synthetic root entry; the
// target is the path's last entry. firstPage replaces any existing children
// (a fresh open of the folder); later pages append with de-dup.
//
// Returns false if the path does not resolve to a materialized node, in
// which case nothing is merged — this happens when a stale response arrives
// after the cache was reset.
func (c *Cache) MergeAt(path []models.PathEntry, items []*models.RemoteItem, firstPage bool) bool {
	if len(path) < 2 {
		c.MergeRoot(items)
		return true
	}

	if path[len(path)-1].DirectoryID == nil {
		c.MergeRoot(items)
		return true
	}

	level := c.root
	dirs := path[1:]
	for i, dir := range dirs {
		if dir.DirectoryID == nil {
			continue
		}
		idx := indexByID(level, *dir.DirectoryID)
		if idx == -1 {
			return false
		}
		node := level[idx]
		if i == len(dirs)-1 {
			if firstPage {
				node.Children = appendDedup(nil, items)
			} else {
				node.Children = appendDedup(node.Children, items)
			}
			return true
		}
		level = node.Children
	}
	return false
}

// ViewAt returns the children of the node addressed by path, or the root
// list for the root path. Returns nil when any intermediate node has no
// materialized children yet.
func (c *Cache) ViewAt(path []models.PathEntry) []*models.RemoteItem {
	level := c.root
	for _, dir := range path {
		if dir.DirectoryID == nil {
			continue
		}
		idx := indexByID(level, *dir.DirectoryID)
		if idx == -1 {
			return nil
		}
		level = level[idx].Children
	}
	return level
}

// RootCount returns the number of materialized root-level items.
func (c *Cache) RootCount() int {
	return len(c.root)
}

// CountAll returns the total number of materialized nodes.
func (c *Cache) CountAll() int {
	return countItems(c.root)
}

func countItems(items []*models.RemoteItem) int {
	n := len(items)
	for _, item := range items {
		n += countItems(item.Children)
	}
	return n
}

func indexByID(items []*models.RemoteItem, externalID string) int {
	for i, item := range items {
		if item.ExternalID == externalID {
			return i
		}
	}
	return -1
}

func appendDedup(dst, items []*models.RemoteItem) []*models.RemoteItem {
	for _, item := range items {
		if indexByID(dst, item.ExternalID) == -1 {
			dst = append(dst, item)
		}
	}
	return dst
}

// Package inventory is the daemon's local item store: a thread-safe catalog
// persisted as a JSON manifest on disk. When the service runs embedded in a
// game host the host's own inventory implements domain.ItemStore instead;
// this package exists so the standalone daemon has real items to work on.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mthec/crafter/internal/domain"
)

// Inventory implements domain.ItemStore over a JSON manifest file.
type Inventory struct {
	mu    sync.RWMutex
	path  string // empty for purely in-memory use
	items map[domain.ItemID]domain.Item
}

// New creates an inventory backed by the manifest at path. An empty path
// keeps the inventory in memory only.
func New(path string) *Inventory {
	return &Inventory{path: path, items: make(map[domain.ItemID]domain.Item)}
}

// Load reads the manifest. A missing file is an empty inventory.
func (inv *Inventory) Load() error {
	if inv.path == "" {
		return nil
	}
	data, err := os.ReadFile(inv.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read inventory manifest: %w", err)
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse inventory manifest: %w", err)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items = make(map[domain.ItemID]domain.Item, len(items))
	for _, it := range items {
		inv.items[it.ID] = it
	}
	return nil
}

// Get returns a snapshot of the item, or false if it does not exist.
func (inv *Inventory) Get(id domain.ItemID) (domain.Item, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	it, ok := inv.items[id]
	return it, ok
}

// Put adds or replaces an item and persists the manifest.
func (inv *Inventory) Put(it domain.Item) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items[it.ID] = it
	return inv.saveLocked()
}

// Remove deletes an item and persists the manifest. Removing a missing
// item is a no-op.
func (inv *Inventory) Remove(id domain.ItemID) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.items[id]; !ok {
		return nil
	}
	delete(inv.items, id)
	return inv.saveLocked()
}

// SetQuality raises an item's quality. Quality never decreases through
// this path; improvement work only moves upward.
func (inv *Inventory) SetQuality(id domain.ItemID, quality int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrItemGone)
	}
	if quality > it.Quality {
		it.Quality = quality
		inv.items[id] = it
	}
	return inv.saveLocked()
}

// All returns a snapshot of every item.
func (inv *Inventory) All() []domain.Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]domain.Item, 0, len(inv.items))
	for _, it := range inv.items {
		out = append(out, it)
	}
	return out
}

// Len returns the item count.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.items)
}

// saveLocked writes the manifest atomically: temp file, then rename.
func (inv *Inventory) saveLocked() error {
	if inv.path == "" {
		return nil
	}
	items := make([]domain.Item, 0, len(inv.items))
	for _, it := range inv.items {
		items = append(items, it)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(inv.path), 0o755); err != nil {
		return err
	}
	tmp := inv.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, inv.path)
}

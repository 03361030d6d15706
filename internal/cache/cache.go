// Package cache holds rendered comparison snapshots for a short time so the
// export and analysis actions work on exactly the data the dashboard showed.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/bobmcallan/stock-compare/internal/models"
)

type entry struct {
	snap    *models.Snapshot
	expires time.Time
}

// SnapshotStore is an in-memory TTL store keyed by snapshot ID. It holds at
// most maxEntries snapshots; when full, expired ones go first, then the
// least recently stored.
type SnapshotStore struct {
	mu    sync.Mutex
	order *list.List // of *entry, least recently stored at the front
	byID  map[string]*list.Element
	ttl   time.Duration
	max   int
	now   func() time.Time
}

// New creates a SnapshotStore. maxEntries below 1 is treated as 1.
func New(ttl time.Duration, maxEntries int) *SnapshotStore {
	return &SnapshotStore{
		order: list.New(),
		byID:  make(map[string]*list.Element),
		ttl:   ttl,
		max:   max(maxEntries, 1),
		now:   time.Now,
	}
}

// Get returns the snapshot stored under id unless it has expired.
func (c *SnapshotStore) Get(id string) (*models.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().After(e.expires) {
		c.remove(el)
		return nil, false
	}
	return e.snap, true
}

// Put stores snap under snap.ID, restarting its TTL if it was already present.
func (c *SnapshotStore) Put(snap *models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := &entry{snap: snap, expires: now.Add(c.ttl)}

	if el, ok := c.byID[snap.ID]; ok {
		el.Value = e
		c.order.MoveToBack(el)
		return
	}

	c.purgeExpired(now)
	for c.order.Len() >= c.max {
		c.remove(c.order.Front())
	}
	c.byID[snap.ID] = c.order.PushBack(e)
}

// Delete removes id if present.
func (c *SnapshotStore) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byID[id]; ok {
		c.remove(el)
	}
}

// Len counts stored snapshots, including expired ones not yet purged.
func (c *SnapshotStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// purgeExpired drops expired entries from the front. All entries share one
// TTL, so the list is ordered by expiry too. Caller holds mu.
func (c *SnapshotStore) purgeExpired(now time.Time) {
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if !now.After(el.Value.(*entry).expires) {
			return
		}
		c.remove(el)
	}
}

func (c *SnapshotStore) remove(el *list.Element) {
	delete(c.byID, c.order.Remove(el).(*entry).snap.ID)
}

// Package idmap backs the uid → slot mapping for the movement core's
// per-agent state table. It exists so that MoveState records live in a flat,
// reusable slab instead of being individually heap-allocated and pointed to:
// the index layer can rehash freely without invalidating any MoveState,
// matching the §9 design note that a pointer into a growable hash map is
// only valid until the next insertion, and that index/id-based access which
// re-looks-up on each use is the preferred replacement.
package idmap

import "github.com/brentp/intintmap"

// Map is a uid → slot index directory, backed by intintmap for an
// allocation-light, open-addressed int64→int64 table.
type Map struct {
	idx *intintmap.Map
}

// New returns a Map sized for roughly capacity entries.
func New(capacity int) *Map {
	return &Map{idx: intintmap.New(capacity, 0.6)}
}

// Put records that uid lives at slot.
func (m *Map) Put(uid int64, slot int64) {
	m.idx.Put(uid, slot)
}

// Get returns the slot uid was last Put at, and whether it is present.
func (m *Map) Get(uid int64) (int64, bool) {
	return m.idx.Get(uid)
}

// Del removes uid from the map.
func (m *Map) Del(uid int64) {
	m.idx.Del(uid)
}

// Len returns the number of entries currently tracked.
func (m *Map) Len() int {
	return m.idx.Size()
}

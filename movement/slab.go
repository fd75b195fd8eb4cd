package movement

// stateFor re-looks-up id's MoveState through the uid→slot index on every
// call, rather than caching a pointer across calls (§9: "pointers are valid
// only until the next insertion" into a growable map — here the index can
// grow, but the slab slot a live agent occupies never moves, so the
// returned pointer is safe to use until the next Core method call, just not
// to retain across one).
func (c *Core) stateFor(id Uid) (*MoveState, bool) {
	slot, ok := c.slotOf.Get(int64(id))
	if !ok {
		return nil, false
	}
	return &c.slab[slot], true
}

// putState allocates (or reuses a freed) slab slot for id and stores ms
// there.
func (c *Core) putState(id Uid, ms *MoveState) {
	var slot int64
	if n := len(c.freed); n > 0 {
		slot = c.freed[n-1]
		c.freed = c.freed[:n-1]
		c.slab[slot] = *ms
	} else {
		slot = int64(len(c.slab))
		c.slab = append(c.slab, *ms)
	}
	c.slotOf.Put(int64(id), slot)
}

// deleteState frees id's slab slot for reuse. The slot's contents are left
// in place until reused; nothing else can observe them because the index
// entry that made them reachable is gone.
func (c *Core) deleteState(id Uid) {
	slot, ok := c.slotOf.Get(int64(id))
	if !ok {
		return
	}
	c.slotOf.Del(int64(id))
	c.freed = append(c.freed, slot)
}

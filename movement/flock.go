package movement

import "github.com/go-gl/mathgl/mgl64"

// flock is a set of agent ids sharing a destination (§3). Membership is
// exclusive across flocks.
type flock struct {
	members  map[Uid]struct{}
	targetXZ mgl64.Vec2
	destID   DestID
}

func newFlock(target mgl64.Vec2, dest DestID) *flock {
	return &flock{members: make(map[Uid]struct{}), targetXZ: target, destID: dest}
}

func (f *flock) add(id Uid)    { f.members[id] = struct{}{} }
func (f *flock) remove(id Uid) { delete(f.members, id) }
func (f *flock) has(id Uid) bool {
	_, ok := f.members[id]
	return ok
}
func (f *flock) empty() bool { return len(f.members) == 0 }

// flockForAgent returns the flock id currently belongs to, if any. An agent
// that reaches ARRIVED or WAITING stays in its flock (the adjacency cascade
// in hasArrived relies on this) until disbandEmptyFlocks destroys the flock
// or Stop, SetSeekEnemies or a new move command removes it.
func (c *Core) flockForAgent(id Uid) (*flock, bool) {
	f, ok := c.agentFlock[id]
	return f, ok
}

// flockForDest returns the flock with the given dest id, if any (invariant
// 5: no two distinct flocks share a dest id, so this is unambiguous).
func (c *Core) flockForDest(dest DestID) (*flock, bool) {
	f, ok := c.destFlock[dest]
	return f, ok
}

// removeFromFlocks removes id from whatever flock it belongs to (§4.1).
// Destroying flocks that become empty is deferred to disbandEmptyFlocks,
// which every tick already sweeps for this and for all-arrived flocks, so
// there is exactly one place flock destruction happens.
func (c *Core) removeFromFlocks(id Uid) {
	f, ok := c.agentFlock[id]
	if !ok {
		return
	}
	f.remove(id)
	delete(c.agentFlock, id)
}

// disbandEmptyFlocks destroys every flock whose members are all empty or
// all ARRIVED (§4.1; an empty flock is trivially in this set). Iterates in
// reverse so in-place deletion from c.flocks is safe (§9 design note:
// "erase-during-reverse-iteration is safe").
func (c *Core) disbandEmptyFlocks() {
	for i := len(c.flocks) - 1; i >= 0; i-- {
		f := c.flocks[i]
		if f.empty() || c.allArrived(f) {
			c.destroyFlock(i)
		}
	}
}

func (c *Core) allArrived(f *flock) bool {
	for id := range f.members {
		ms, ok := c.stateFor(id)
		if !ok || ms.State != Arrived {
			return false
		}
	}
	return true
}

// destroyFlock removes the flock at index i from c.flocks, swapping it with
// the last element to avoid an O(n) shift, and clears the dest/agent index
// entries that pointed at it.
func (c *Core) destroyFlock(i int) {
	f := c.flocks[i]
	for id := range f.members {
		delete(c.agentFlock, id)
	}
	delete(c.destFlock, f.destID)

	last := len(c.flocks) - 1
	c.flocks[i] = c.flocks[last]
	c.flocks[last] = nil
	c.flocks = c.flocks[:last]
}

// makeFlock implements §4.1 make_flock: derives the dest id from target via
// Nav.DestIDForPos, removes every non-stationary selected agent from its
// current flock, and either merges the selection into an existing same-dest
// flock or creates a new one. target itself is stored as given; it is not
// snapped to a reachable point, and the agents' positions play no part in
// choosing the dest id. Returns false (nothing committed) if selection is
// empty.
//
// attack is accepted for signature fidelity with §4.1/§6 but is ignored: it
// is not carried in any event payload and it does not change the
// resulting state: §4.2 lists exactly one make_flock-triggered transition
// (ARRIVED/SEEK_ENEMIES → MOVING); SEEK_ENEMIES is only ever entered through
// the separate, explicit SetSeekEnemies command.
func (c *Core) makeFlock(selection []Uid, target mgl64.Vec2, attack bool) bool {
	_ = attack
	if len(selection) == 0 {
		return false
	}

	movable := make([]Uid, 0, len(selection))
	for _, id := range selection {
		a, ok := c.agents[id]
		if !ok || a.Flags.Has(FlagStatic) || a.MaxSpeed == 0 || a.SelectionRadius == 0 {
			continue
		}
		movable = append(movable, id)
	}
	if len(movable) == 0 {
		return false
	}

	first := c.agents[movable[0]]
	dest := c.nav.DestIDForPos(target)

	for _, id := range movable {
		c.removeFromFlocks(id)
	}

	dst, merging := c.flockForDest(dest)
	if !merging {
		dst = newFlock(target, dest)
		c.flocks = append(c.flocks, dst)
		c.destFlock[dest] = dst
	}

	for _, id := range movable {
		dst.add(id)
		c.agentFlock[id] = dst

		ms, ok := c.stateFor(id)
		if !ok {
			continue
		}
		wasStill := ms.State.Still()
		ms.State = Moving
		if wasStill {
			c.releaseBlocker(id, ms)
			c.emit(MotionStart, id, first.XZ())
		}
	}
	return true
}

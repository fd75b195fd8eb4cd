package movement

import "github.com/go-gl/mathgl/mgl64"

// pending is the per-agent scratch computed in pass 1 of Tick and consumed
// in pass 2 (§4.8: "the two-pass split is a correctness requirement —
// neighbour velocities read during ClearPath must all belong to the same
// tick").
type pending struct {
	id   Uid
	vnew mgl64.Vec2
}

// Tick is Move_Tick: advances the simulation by one movement tick (§4.8).
func (c *Core) Tick() {
	c.tick++
	c.disbandEmptyFlocks()

	work := make([]pending, 0, len(c.agents))
	var waiting []Uid
	for id, a := range c.agents {
		if a.Flags.Has(FlagStatic) {
			continue
		}
		ms, ok := c.stateFor(id)
		if ok && ms.State == Waiting {
			waiting = append(waiting, id)
			continue
		}
		if !ok || ms.State.Still() {
			continue
		}
		vnew := c.computeVnew(id, a, ms)
		ms.VelHist.Push(vnew)
		work = append(work, pending{id: id, vnew: vnew})
	}

	for _, w := range work {
		c.entityUpdate(w.id, w.vnew)
	}

	// WAITING agents do not move; they only count down wait_ticks_left.
	for _, id := range waiting {
		if ms, ok := c.stateFor(id); ok && ms.State == Waiting {
			c.evaluateTransitions(id, c.agents[id], ms)
		}
	}
}

// computeVnew is pass 1 for one agent: vdes, vpref, neighbour discovery,
// ClearPath reconciliation, and the §4.5 integration hook.
func (c *Core) computeVnew(id Uid, a Agent, ms *MoveState) mgl64.Vec2 {
	pos := a.XZ()

	if ms.State == SeekEnemies {
		ms.Vdes = c.nav.DesiredEnemySeekVelocity(pos, ms.FactionSeek)
	} else if f, ok := c.flockForAgent(id); ok {
		ms.Vdes = c.nav.DesiredPointSeekVelocity(f.destID, pos, f.targetXZ)
	} else {
		ms.Vdes = mgl64.Vec2{}
	}

	var dest mgl64.Vec2
	if f, ok := c.flockForAgent(id); ok {
		dest = f.targetXZ
	}

	nb := c.discoverNeighbours(id, pos, c.cfg.ClearPathNeighbourRadius)
	vpref := c.preferredVelocity(id, a, ms, dest, nb)

	accel := vpref.Mul(1 / entityMass)
	vpref = truncate(ms.Velocity.Add(accel), a.MaxSpeed/c.cfg.TickRes)

	self := Neighbour{Uid: id, XZPos: pos, XZVel: ms.Velocity, Radius: a.SelectionRadius}
	vnew := c.clearPath.NewVelocity(self, vpref, nb.Dynamic, nb.Static)

	// §4.5 integration hook, deliberately a double assignment.
	velDiff := vnew.Sub(ms.Velocity)
	vnew = ms.Velocity.Add(velDiff)
	vnew = truncate(vnew, a.MaxSpeed/c.cfg.TickRes)

	return vnew
}

// entityUpdate is pass 2 for one agent: commits the position per §4.7, then
// runs the §4.2 state machine.
func (c *Core) entityUpdate(id Uid, vnew mgl64.Vec2) {
	a, ok := c.agents[id]
	if !ok {
		return
	}
	ms, ok := c.stateFor(id)
	if !ok {
		return
	}

	pos := a.XZ()
	if !c.nav.Pathable(pos) {
		// Current position is non-pathable; leave the state machine
		// untouched this tick (§4.7).
		return
	}

	ms.Vnew = vnew
	if vnew.Len() > 0 {
		newPos := pos.Add(vnew)
		if c.nav.Pathable(newPos) {
			a.Pos = mgl64.Vec3{newPos.X(), a.Pos.Y(), newPos.Y()}
			c.agents[id] = a
			ms.Velocity = vnew
			c.positions.SetPosition(id, a.Pos)

			if wma := ms.orientationWMA(); !nearZero(wma) {
				c.positions.SetOrientation(id, yawFromXZ(wma))
			}
		} else {
			ms.Velocity = mgl64.Vec2{}
		}
	} else {
		ms.Velocity = mgl64.Vec2{}
	}

	c.evaluateTransitions(id, a, ms)
}

// evaluateTransitions runs the §4.2 per-agent state machine for one agent
// after its position has committed for this tick.
func (c *Core) evaluateTransitions(id Uid, a Agent, ms *MoveState) {
	pos := a.XZ()

	switch ms.State {
	case Moving:
		if c.hasArrived(id, a, ms) {
			c.transitionToArrived(id, a, ms)
			return
		}
		if nearZero(ms.Vdes) {
			c.transitionToWaiting(id, ms)
			return
		}
	case SeekEnemies:
		if nearZero(ms.Vdes) {
			c.transitionToWaiting(id, ms)
			return
		}
	case Waiting:
		ms.WaitTicksLeft--
		if ms.WaitTicksLeft <= 0 {
			c.releaseBlocker(id, ms)
			ms.State = ms.WaitPrev
			c.emit(MotionStart, id, pos)
		}
	}
}

// hasArrived implements §4.2's MOVING → ARRIVED disjunction: within
// arrive-threshold of the flock target, or nav reports maximal closeness, or
// any adjacent flockmate has already arrived.
func (c *Core) hasArrived(id Uid, a Agent, ms *MoveState) bool {
	f, ok := c.flockForAgent(id)
	if !ok {
		return false
	}
	pos := a.XZ()
	if pos.Sub(f.targetXZ).Len() <= arriveSlowingRadius*0.1 {
		return true
	}
	// "nav reports maximally close": the flow field has no further guidance
	// to offer (vdes is zero) and the target is directly visible, so there
	// is nowhere left for the field to steer towards. A zero vdes without
	// line-of-sight instead means the path is obstructed, handled below as
	// MOVING → WAITING.
	if nearZero(ms.Vdes) && c.nav.HasLineOfSight(pos, f.targetXZ) {
		return true
	}
	for other := range f.members {
		if other == id {
			continue
		}
		oa, ok := c.agents[other]
		if !ok {
			continue
		}
		oms, ok := c.stateFor(other)
		if !ok || oms.State != Arrived {
			continue
		}
		dist := pos.Sub(oa.XZ()).Len()
		if dist <= a.SelectionRadius+oa.SelectionRadius+adjacencySepDist {
			return true
		}
	}
	return false
}

func (c *Core) transitionToArrived(id Uid, a Agent, ms *MoveState) {
	ms.State = Arrived
	ms.Vnew = mgl64.Vec2{}
	ms.Velocity = mgl64.Vec2{}
	c.acquireBlockerAt(id, ms, a.XZ(), a.SelectionRadius)
	c.emit(MotionEnd, id, a.XZ())
}

func (c *Core) transitionToWaiting(id Uid, ms *MoveState) {
	ms.WaitPrev = ms.State
	ms.State = Waiting
	ms.WaitTicksLeft = waitTicks
	a := c.agents[id]
	c.acquireBlockerAt(id, ms, a.XZ(), a.SelectionRadius)
}

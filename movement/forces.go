package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// seek is the Seek utility force (§4.4): desired = normalise(target-pos) *
// maxSpeed/TICK_RES; returns desired - velocity, truncated to MAX_FORCE.
func seek(pos, target, velocity mgl64.Vec2, maxSpeed, tickRes float64) mgl64.Vec2 {
	diff := target.Sub(pos)
	var desired mgl64.Vec2
	if diff.Len() > 0 {
		desired = diff.Normalize().Mul(maxSpeed / tickRes)
	}
	return truncate(desired.Sub(velocity), maxForce)
}

// arrive is the Arrive force (§4.4). If nav reports line-of-sight from pos
// to dest, it computes a seek-like desired velocity scaled down linearly
// inside ARRIVE_SLOWING_RADIUS; otherwise it falls back to vdes scaled by
// maxSpeed/tickRes.
func (c *Core) arrive(pos, dest, vdes, velocity mgl64.Vec2, maxSpeed float64) mgl64.Vec2 {
	tickRes := c.cfg.TickRes
	var desired mgl64.Vec2
	if c.nav.HasLineOfSight(pos, dest) {
		diff := dest.Sub(pos)
		dist := diff.Len()
		if dist > 0 {
			desired = diff.Normalize().Mul(maxSpeed / tickRes)
			if dist < arriveSlowingRadius {
				desired = desired.Mul(dist / arriveSlowingRadius)
			}
		}
	} else {
		desired = vdes.Mul(maxSpeed / tickRes)
	}
	return truncate(desired.Sub(velocity), maxForce)
}

// alignment (§4.4). Open question #1 from §9: the present implementation
// averages the *current agent's* own velocity inside the loop rather than
// each neighbour's, which algebraically cancels to the zero vector
// (scale * n/n * velocity - velocity = 0). This is preserved verbatim per
// explicit instruction not to "fix" it without design-owner direction.
// §4.4's vpref cascade formula does not list Alignment as one of its terms,
// so it stays a standalone, separately callable force rather than being
// folded into preferredVelocity; the tick never calls it.
func alignment(pos, velocity mgl64.Vec2, flockmates []Neighbour) mgl64.Vec2 {
	n := 0
	for _, m := range flockmates {
		if m.XZPos.Sub(pos).Len() <= alignNeighbourRadius {
			n++
		}
	}
	if n == 0 {
		return mgl64.Vec2{}
	}
	var sum mgl64.Vec2
	for i := 0; i < n; i++ {
		sum = sum.Add(velocity) // see doc comment: deliberately self, not neighbour
	}
	avg := sum.Mul(1 / float64(n))
	return truncate(avg.Sub(velocity), maxForce)
}

// cohesion (§4.4): weighted centre-of-mass steer using an exponential decay
// curve over distance so the force has no discontinuity at the radius
// boundary. Only flockmates within COHESION_NEIGHBOUR_RADIUS contribute.
func cohesion(pos mgl64.Vec2, velocity mgl64.Vec2, flockmates []Neighbour, maxSpeed, tickRes float64) mgl64.Vec2 {
	var weightedSum mgl64.Vec2
	var totalWeight float64
	for _, n := range flockmates {
		dist := n.XZPos.Sub(pos).Len()
		if dist > cohesionNeighbourRadius {
			continue
		}
		t := (dist - 0.75*cohesionNeighbourRadius) / cohesionNeighbourRadius
		w := math.Exp(-6 * t)
		weightedSum = weightedSum.Add(n.XZPos.Mul(w))
		totalWeight += w
	}
	if totalWeight == 0 {
		return mgl64.Vec2{}
	}
	centre := weightedSum.Mul(1 / totalWeight)
	return seek(pos, centre, velocity, maxSpeed, tickRes)
}

// separation (§4.4): accumulates diff*exp(-20t) over non-static neighbours
// within SEPARATION_NEIGHB_RADIUS, then negates the sum so agents push
// apart.
func separation(pos mgl64.Vec2, neighbours []Neighbour, selfRadius float64) mgl64.Vec2 {
	var sum mgl64.Vec2
	for _, n := range neighbours {
		diff := pos.Sub(n.XZPos)
		dist := diff.Len()
		if dist == 0 || dist > separationNeighbRadius {
			continue
		}
		radius := selfRadius + n.Radius + separationBufferDist
		t := (dist - 0.85*radius) / dist
		w := math.Exp(-20 * t)
		sum = sum.Add(diff.Mul(w))
	}
	return truncate(sum.Mul(-1), maxForce)
}

// nullifyImpassable zeroes the x or z component of force if it points into
// an impassable neighbour tile along that axis (§4.4).
func (c *Core) nullifyImpassable(pos mgl64.Vec2, force mgl64.Vec2) mgl64.Vec2 {
	x, z := force.X(), force.Y()
	if x > 0 && c.nav.ImpassableNeighbour(pos, 1, 0) {
		x = 0
	} else if x < 0 && c.nav.ImpassableNeighbour(pos, -1, 0) {
		x = 0
	}
	if z > 0 && c.nav.ImpassableNeighbour(pos, 0, 1) {
		z = 0
	} else if z < 0 && c.nav.ImpassableNeighbour(pos, 0, -1) {
		z = 0
	}
	return mgl64.Vec2{x, z}
}

// neighbourSet is the partitioned result of a neighbour-discovery query
// (§4.5): still agents (ARRIVED/WAITING) go to Static, moving ones to
// Dynamic.
type neighbourSet struct {
	Dynamic []Neighbour
	Static  []Neighbour
	// Flockmates holds, among Dynamic, those sharing self's flock — the
	// subset Alignment/Cohesion steer with.
	Flockmates []Neighbour
}

// discoverNeighbours implements §4.5's neighbour discovery and partition,
// reused by both the ClearPath call and the Cohesion/Separation forces (each
// force applies its own, narrower distance cutoff internally).
func (c *Core) discoverNeighbours(self Uid, pos mgl64.Vec2, radius float64) neighbourSet {
	var set neighbourSet
	selfFlock, hasFlock := c.flockForAgent(self)

	for _, a := range c.positions.Neighbours(pos, radius, self) {
		if a.Flags.Has(FlagStatic) || a.SelectionRadius == 0 {
			continue
		}
		ms, ok := c.stateFor(a.Uid)
		if !ok {
			continue
		}
		n := Neighbour{Uid: a.Uid, XZPos: a.XZ(), XZVel: ms.Velocity, Radius: a.SelectionRadius}
		if ms.State.Still() {
			set.Static = append(set.Static, n)
			continue
		}
		set.Dynamic = append(set.Dynamic, n)
		if hasFlock {
			if f, ok := c.flockForAgent(a.Uid); ok && f == selfFlock {
				set.Flockmates = append(set.Flockmates, n)
			}
		}
	}
	return set
}

// preferredVelocity computes vpref for one agent (§4.4 "Preferred velocity
// (vpref)"): a priority cascade of Arrive+Cohesion+Separation for
// point-seek agents (Arrive+Separation for enemy-seek ones), falling back
// to Separation alone and then Arrive alone if the combined force is
// nullified down to near-zero by impassable-tile checks.
func (c *Core) preferredVelocity(id Uid, a Agent, ms *MoveState, dest mgl64.Vec2, nb neighbourSet) mgl64.Vec2 {
	pos := a.XZ()
	arriveForce := truncate(c.arrive(pos, dest, ms.Vdes, ms.Velocity, a.MaxSpeed).Mul(arrivalScale), maxForce)
	sepForce := truncate(separation(pos, append(append([]Neighbour{}, nb.Dynamic...), nb.Static...), a.SelectionRadius).Mul(separationScale), maxForce)

	if ms.State == SeekEnemies {
		total := truncate(arriveForce.Add(sepForce), maxForce)
		total = c.nullifyImpassable(pos, total)
		if total.Len() <= vprefDegenerateThreshold {
			return sepForce
		}
		return total
	}

	cohesionForce := truncate(cohesion(pos, ms.Velocity, nb.Flockmates, a.MaxSpeed, c.cfg.TickRes).Mul(cohesionScale), maxForce)
	total := truncate(arriveForce.Add(cohesionForce).Add(sepForce), maxForce)
	total = c.nullifyImpassable(pos, total)
	if total.Len() <= vprefDegenerateThreshold {
		if sepForce.Len() > vprefDegenerateThreshold {
			return sepForce
		}
		return arriveForce
	}
	return total
}

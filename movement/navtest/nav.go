// Package navtest provides minimal, deterministic stand-ins for the
// out-of-scope navigation mesh and entity/position store the movement core
// depends on (movement.Nav, movement.PositionStore), for use in tests and
// small demos that do not have a real nav mesh to hand.
package navtest

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ashenvale/rtscore/movement"
)

// destQuantum is the grid size destination positions are snapped to before
// hashing, so two clicks inside the same cell resolve to one flock (§4.1).
const destQuantum = 0.5

// Nav is a bare-bones movement.Nav: every tile is pathable and visible in a
// straight line, and "impassable neighbour" always reports clear. It exists
// so movement package tests can exercise the steering/state-machine logic
// without a real navigation mesh.
type Nav struct {
	// Blocked, if set, reports whether pos is impassable terrain — tests can
	// populate it to exercise the non-pathable corner cases in §4.7.
	Blocked func(pos mgl64.Vec2) bool
}

// DestIDForPos derives a DestID deterministically from pos by quantising it
// to destQuantum and hashing the result with xxhash, so repeated calls with
// nearby positions (and, across process restarts, literally the same
// position) produce the same id — exercising invariant 5 (no two distinct
// flocks share a dest id).
func (n *Nav) DestIDForPos(pos mgl64.Vec2) movement.DestID {
	qx := math.Round(pos.X()/destQuantum) * destQuantum
	qz := math.Round(pos.Y()/destQuantum) * destQuantum

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(qx))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(qz))
	return movement.DestID(xxhash.Sum64(buf[:]))
}

// DesiredPointSeekVelocity returns a unit vector from pos towards target, or
// the zero vector once within epsilon of it.
func (n *Nav) DesiredPointSeekVelocity(_ movement.DestID, pos, target mgl64.Vec2) mgl64.Vec2 {
	diff := target.Sub(pos)
	if diff.Len() < 1e-6 {
		return mgl64.Vec2{}
	}
	return diff.Normalize()
}

// DesiredEnemySeekVelocity always reports no guidance; navtest carries no
// notion of factions or combatants.
func (n *Nav) DesiredEnemySeekVelocity(_ mgl64.Vec2, _ int) mgl64.Vec2 {
	return mgl64.Vec2{}
}

// HasLineOfSight always reports true: navtest has no obstructions.
func (n *Nav) HasLineOfSight(_, _ mgl64.Vec2) bool { return true }

// Pathable reports whether pos is walkable, consulting Blocked if set.
func (n *Nav) Pathable(pos mgl64.Vec2) bool {
	if n.Blocked == nil {
		return true
	}
	return !n.Blocked(pos)
}

// ImpassableNeighbour always reports clear; navtest has no terrain.
func (n *Nav) ImpassableNeighbour(_ mgl64.Vec2, _, _ float64) bool { return false }

// AcquireBlocker and ReleaseBlocker are no-ops: navtest does not model
// blocker reference counts, only the movement core's own bookkeeping does.
func (n *Nav) AcquireBlocker(_ mgl64.Vec2, _ float64) {}
func (n *Nav) ReleaseBlocker(_ mgl64.Vec2, _ float64) {}

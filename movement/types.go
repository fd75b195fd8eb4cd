// Package movement implements the flock-based steering simulation that
// drives agents toward shared destinations over a navigation mesh,
// reconciling a flow-field-derived preferred velocity with ClearPath local
// collision avoidance at a fixed simulation rate.
package movement

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Uid is a stable per-agent integer identifier, owned by the entity store.
type Uid int64

// Flag bits carried on agent identity. The entity store owns these; the
// movement core only reads them.
type Flag uint32

const (
	// FlagStatic marks an agent that never moves and is never itself steered
	// (scenery, buildings); neighbour discovery skips it, so it is not a
	// ClearPath neighbour either.
	FlagStatic Flag = 1 << iota
	// FlagCombatable marks an agent eligible to be the target of enemy-seek
	// queries.
	FlagCombatable
	// FlagMarker marks a non-combat move marker entity (e.g. a destination
	// decal). The movement core does not check this flag.
	FlagMarker
)

// Has reports whether f includes bit.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Agent is the read-only view the movement core has of an entity owned by
// the (out-of-scope) entity store.
type Agent struct {
	Uid             Uid
	Pos             mgl64.Vec3 // world position
	SelectionRadius float64
	MaxSpeed        float64
	Flags           Flag
}

// XZ projects the agent's world position onto the nav plane.
func (a Agent) XZ() mgl64.Vec2 { return mgl64.Vec2{a.Pos.X(), a.Pos.Z()} }

// State is the per-agent arrival state machine (§4.2).
type State uint8

const (
	Moving State = iota
	Arrived
	SeekEnemies
	Waiting
)

func (s State) String() string {
	switch s {
	case Moving:
		return "MOVING"
	case Arrived:
		return "ARRIVED"
	case SeekEnemies:
		return "SEEK_ENEMIES"
	case Waiting:
		return "WAITING"
	default:
		return "UNKNOWN"
	}
}

// Still reports whether s is one of the "at rest" states that hold a nav
// blocker: ARRIVED or WAITING.
func (s State) Still() bool { return s == Arrived || s == Waiting }

// DestID is an opaque handle identifying a reachable destination region,
// as returned by Nav. Two positions snap to the same DestID iff they are
// reachable along the same connected navigable region near the target.
type DestID uint64

// Nav is the out-of-scope navigation subsystem: flow-field construction,
// line-of-sight queries, reachable-destination snapping, and blocker
// reference counts. The movement core treats it as a black box.
type Nav interface {
	// DestIDForPos snaps pos to the nearest reachable destination region and
	// returns its DestID.
	DestIDForPos(pos mgl64.Vec2) DestID
	// DesiredPointSeekVelocity returns a unit-scale flow-field vector at pos
	// steering toward dest/target, or the zero vector if the field gives no
	// guidance.
	DesiredPointSeekVelocity(dest DestID, pos, target mgl64.Vec2) mgl64.Vec2
	// DesiredEnemySeekVelocity returns a unit-scale vector steering pos
	// toward the nearest combatable agent visible to faction.
	DesiredEnemySeekVelocity(pos mgl64.Vec2, faction int) mgl64.Vec2
	// HasLineOfSight reports whether dest is visible in a straight line from
	// pos, unobstructed by impassable terrain.
	HasLineOfSight(pos, dest mgl64.Vec2) bool
	// Pathable reports whether pos lies on navigable terrain.
	Pathable(pos mgl64.Vec2) bool
	// ImpassableNeighbour reports, for each cardinal axis, whether the tile
	// one tile-width away from pos along +x/+z (or -x/-z, mirrored by the
	// caller) is impassable. Used for steering-force nullification (§4.4).
	ImpassableNeighbour(pos mgl64.Vec2, dx, dz float64) bool
	// AcquireBlocker increments the blocker reference count for a circle of
	// radius r centred at pos.
	AcquireBlocker(pos mgl64.Vec2, r float64)
	// ReleaseBlocker decrements the blocker reference count previously
	// acquired with the same pos/r.
	ReleaseBlocker(pos mgl64.Vec2, r float64)
}

// ClearPath is the out-of-scope local collision-avoidance primitive: a pure
// function from a preferred velocity and the surrounding neighbours to a
// velocity that avoids imminent collisions.
type ClearPath interface {
	NewVelocity(self Neighbour, preferred mgl64.Vec2, dynamic, static []Neighbour) mgl64.Vec2
}

// Neighbour is one entry ClearPath and the steering forces see during
// neighbour discovery (§4.5).
type Neighbour struct {
	Uid    Uid
	XZPos  mgl64.Vec2
	XZVel  mgl64.Vec2
	Radius float64
}

// PositionStore is the out-of-scope entity/position store. The movement
// core queries it for neighbour discovery and writes committed positions
// and facing back through it.
type PositionStore interface {
	// Neighbours returns every agent within radius of pos, excluding the
	// agent identified by exclude.
	Neighbours(pos mgl64.Vec2, radius float64, exclude Uid) []Agent
	// SetPosition commits pos as the agent's new world position. The
	// movement core passes the agent's previous y unchanged; it does not
	// sample a height field.
	SetPosition(id Uid, pos mgl64.Vec3)
	// SetOrientation applies a yaw-only rotation about the Y axis, in
	// radians, derived from the orientation-smoothing WMA (§4.6).
	SetOrientation(id Uid, yawRadians float64)
}

// EventKind names an event the movement core emits.
type EventKind uint8

const (
	MotionStart EventKind = iota
	MotionEnd
)

// MotionEvent is the supplemental payload shape for MOTION_START/MOTION_END
// (§6): enough for a host to drive animation/sound without re-querying
// movement state from inside the event callback.
type MotionEvent struct {
	Kind EventKind
	Agent Uid
	Pos  mgl64.Vec2
	Tick int64
}

// EventSink receives motion events as the tick emits them. The host's event
// bus is out of scope; this is the narrow interface the core drives it
// through.
type EventSink interface {
	Emit(MotionEvent)
}

// ClickMode selects what a left click does with the current selection
// (supplemental: §9 "input-mode flags", consumed by Core.HandleClick).
type ClickMode uint8

const (
	ClickMove ClickMode = iota
	ClickAttack
)

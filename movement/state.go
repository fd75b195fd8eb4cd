package movement

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ashenvale/rtscore/movement/ringbuf"
)

// MoveState is the per-agent movement record (§3). Pointers to it must
// never be held across a slab resize; callers always go through
// Core.stateFor, which re-looks-up the slot on every use (§9 design note).
type MoveState struct {
	State State

	Vdes     mgl64.Vec2 // desired velocity, last returned by nav
	Vnew     mgl64.Vec2 // velocity chosen for the next integration step
	Velocity mgl64.Vec2 // velocity actually used in the last integration step

	Blocking       bool
	LastStopPos    mgl64.Vec2
	LastStopRadius float64

	WaitPrev      State
	WaitTicksLeft int

	VelHist    *ringbuf.Buffer[mgl64.Vec2]
	FactionSeek int // faction used for SEEK_ENEMIES queries
}

// newMoveState creates the initial MoveState for a freshly-added agent:
// ARRIVED with a blocker acquired at its current position (§3 Lifecycle).
func newMoveState(pos mgl64.Vec2, radius float64) *MoveState {
	return &MoveState{
		State:          Arrived,
		Blocking:       true,
		LastStopPos:    pos,
		LastStopRadius: radius,
		VelHist:        ringbuf.New[mgl64.Vec2](velHistLen),
	}
}

// orientationWMA computes the weighted moving average over VelHist per
// §4.6: weights VEL_HIST_LEN-i, most-recent sample weighted heaviest.
func (ms *MoveState) orientationWMA() mgl64.Vec2 {
	return ringbuf.WeightedMovingAverage(ms.VelHist, mgl64.Vec2{},
		func(acc, v mgl64.Vec2) mgl64.Vec2 { return acc.Add(v) },
		func(v mgl64.Vec2, w float64) mgl64.Vec2 { return v.Mul(w) },
	)
}

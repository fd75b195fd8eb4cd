package navtest

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ashenvale/rtscore/movement"
)

// PassthroughClearPath is a movement.ClearPath that performs no local
// avoidance at all, returning preferred unchanged. Useful for tests that
// want to exercise the steering/state-machine logic in isolation from
// collision avoidance.
type PassthroughClearPath struct{}

func (PassthroughClearPath) NewVelocity(_ movement.Neighbour, preferred mgl64.Vec2, _, _ []movement.Neighbour) mgl64.Vec2 {
	return preferred
}

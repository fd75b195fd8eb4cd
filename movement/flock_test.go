package movement

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ashenvale/rtscore/movement/navtest"
)

func newTestCore() *Core {
	return New(&navtest.Nav{}, navtest.PassthroughClearPath{}, navtest.NewGrid(), nil, DefaultConfig(), nil)
}

func addAgent(c *Core, id Uid, pos mgl64.Vec3) {
	a := Agent{Uid: id, Pos: pos, SelectionRadius: 1, MaxSpeed: 4.3}
	c.AddEntity(a)
}

func TestSetDestTwiceMergesIntoOneFlock(t *testing.T) {
	c := newTestCore()
	addAgent(c, 1, mgl64.Vec3{0, 0, 0})
	addAgent(c, 2, mgl64.Vec3{1, 0, 0})

	target := mgl64.Vec2{10, 10}
	if !c.SetDest(1, target) {
		t.Fatal("SetDest(1) = false")
	}
	if !c.SetDest(2, target) {
		t.Fatal("SetDest(2) = false")
	}

	f1, ok1 := c.flockForAgent(1)
	f2, ok2 := c.flockForAgent(2)
	if !ok1 || !ok2 {
		t.Fatal("expected both agents in a flock")
	}
	if f1 != f2 {
		t.Error("two SetDest calls to the same target produced two flocks, want one")
	}
	if len(c.flocks) != 1 {
		t.Errorf("len(c.flocks) = %d, want 1", len(c.flocks))
	}
}

func TestMakeFlockTransitionsStillAgentsToMoving(t *testing.T) {
	c := newTestCore()
	addAgent(c, 1, mgl64.Vec3{0, 0, 0})

	ms, ok := c.stateFor(1)
	if !ok || ms.State != Arrived {
		t.Fatal("expected freshly-added agent to start ARRIVED")
	}
	if !ms.Blocking {
		t.Fatal("expected freshly-added agent to hold a blocker")
	}

	c.SetDest(1, mgl64.Vec2{5, 5})

	ms, _ = c.stateFor(1)
	if ms.State != Moving {
		t.Errorf("state after SetDest = %v, want MOVING", ms.State)
	}
	if ms.Blocking {
		t.Error("expected blocker released on entering MOVING")
	}
}

func TestMakeFlockEmptySelectionFails(t *testing.T) {
	c := newTestCore()
	if c.makeFlock(nil, mgl64.Vec2{1, 1}, false) {
		t.Error("makeFlock with empty selection should return false")
	}
	if c.makeFlock([]Uid{99}, mgl64.Vec2{1, 1}, false) {
		t.Error("makeFlock with only unknown ids should return false")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := newTestCore()
	addAgent(c, 1, mgl64.Vec3{0, 0, 0})
	c.SetDest(1, mgl64.Vec2{5, 5})

	c.Stop(1)
	ms, _ := c.stateFor(1)
	if ms.State != Arrived {
		t.Fatalf("state after Stop = %v, want ARRIVED", ms.State)
	}
	if _, ok := c.flockForAgent(1); ok {
		t.Error("expected Stop to remove agent from its flock")
	}

	// A second Stop on an already-ARRIVED agent must be a no-op: in
	// particular it must not panic by trying to acquire an
	// already-held blocker.
	c.Stop(1)
	ms, _ = c.stateFor(1)
	if ms.State != Arrived {
		t.Fatalf("state after second Stop = %v, want ARRIVED", ms.State)
	}
}

func TestDisbandEmptyFlocksRemovesEmptiedFlock(t *testing.T) {
	c := newTestCore()
	addAgent(c, 1, mgl64.Vec3{0, 0, 0})
	c.SetDest(1, mgl64.Vec2{5, 5})
	if len(c.flocks) != 1 {
		t.Fatal("expected one flock after SetDest")
	}

	c.Stop(1) // removeFromFlocks leaves the flock empty
	c.disbandEmptyFlocks()
	if len(c.flocks) != 0 {
		t.Errorf("len(c.flocks) after disband = %d, want 0", len(c.flocks))
	}
	if len(c.destFlock) != 0 {
		t.Error("expected destFlock index cleared alongside the flock")
	}
}

func TestRemoveEntityDropsStateAndAgent(t *testing.T) {
	c := newTestCore()
	addAgent(c, 1, mgl64.Vec3{0, 0, 0})
	c.RemoveEntity(1)

	if _, ok := c.stateFor(1); ok {
		t.Error("expected MoveState dropped after RemoveEntity")
	}
	if _, ok := c.agents[1]; ok {
		t.Error("expected Agent record dropped after RemoveEntity")
	}
}

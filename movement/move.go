package movement

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ashenvale/rtscore/movement/idmap"
)

// Core is the single owning struct threaded through initialisation (§9
// "global mutable state" → "a single owning struct ... with lifetime bound
// to Init/Shutdown"): it holds the flock registry, the per-agent state
// slab, and the collaborators the movement tick reads from.
type Core struct {
	nav       Nav
	clearPath ClearPath
	positions PositionStore
	events    EventSink
	cfg       Config
	log       *slog.Logger

	agents map[Uid]Agent

	flocks     []*flock
	agentFlock map[Uid]*flock
	destFlock  map[DestID]*flock

	slab   []MoveState
	freed  []int64
	slotOf *idmap.Map

	clickMode ClickMode

	tick int64
}

// New is Move_Init: constructs a Core bound to the given out-of-scope
// collaborators and tuning configuration.
func New(nav Nav, cp ClearPath, positions PositionStore, events EventSink, cfg Config, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	return &Core{
		nav:        nav,
		clearPath:  cp,
		positions:  positions,
		events:     events,
		cfg:        cfg,
		log:        log,
		agents:     make(map[Uid]Agent),
		agentFlock: make(map[Uid]*flock),
		destFlock:  make(map[DestID]*flock),
		slotOf:     idmap.New(1024),
		clickMode:  ClickMove,
	}
}

// Shutdown is Move_Shutdown: releases every still agent's blocker and
// drops all movement state. The entity store and nav mesh outlive this
// call; Core only unwinds its own bookkeeping.
func (c *Core) Shutdown() {
	for id := range c.agents {
		if ms, ok := c.stateFor(id); ok && ms.Blocking {
			c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
		}
	}
	c.agents = nil
	c.flocks = nil
	c.agentFlock = nil
	c.destFlock = nil
	c.slab = nil
	c.freed = nil
	c.slotOf = idmap.New(0)
}

// AddEntity is Move_AddEntity: registers ent with the movement core,
// creating its MoveState in ARRIVED with a blocker acquired at its current
// position (§3 Lifecycle).
func (c *Core) AddEntity(ent Agent) {
	c.agents[ent.Uid] = ent
	if ent.SelectionRadius <= 0 {
		return // invariant 1 only requires a MoveState for selectable agents
	}
	ms := newMoveState(ent.XZ(), ent.SelectionRadius)
	c.putState(ent.Uid, ms)
	c.nav.AcquireBlocker(ms.LastStopPos, ms.LastStopRadius)
}

// RemoveEntity is Move_RemoveEntity: releases ent's blocker if it held one,
// revokes flock membership, and drops its MoveState.
func (c *Core) RemoveEntity(id Uid) {
	if ms, ok := c.stateFor(id); ok {
		if ms.Blocking {
			c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
		}
		c.removeFromFlocks(id)
		c.deleteState(id)
	}
	delete(c.agents, id)
}

// Stop is Move_Stop: forces ent out of any non-still state into ARRIVED.
// Two consecutive calls are equivalent to one (idempotent): if ent is
// already ARRIVED this is a no-op.
func (c *Core) Stop(id Uid) {
	ms, ok := c.stateFor(id)
	if !ok || ms.State == Arrived {
		return
	}
	c.removeFromFlocks(id)
	ms.State = Arrived
	ms.Vnew = mgl64.Vec2{}
	ms.Velocity = mgl64.Vec2{}
	a := c.agents[id]
	c.acquireBlockerAt(id, ms, a.XZ(), a.SelectionRadius)
	c.emit(MotionEnd, id, a.XZ())
}

// GetDest is Move_GetDest: returns the target of the flock ent belongs to,
// if any.
func (c *Core) GetDest(id Uid) (mgl64.Vec2, bool) {
	f, ok := c.flockForAgent(id)
	if !ok {
		return mgl64.Vec2{}, false
	}
	return f.targetXZ, true
}

// SetDest is Move_SetDest: moves the single agent id to target. Calling
// this twice with the same target creates exactly one flock for it (the
// second call merges into the first via dest-id equality, §4.1).
func (c *Core) SetDest(id Uid, target mgl64.Vec2) bool {
	return c.makeFlock([]Uid{id}, target, false)
}

// SetMoveOnLeftClick and SetAttackOnLeftClick are Move_SetMoveOnLeftClick /
// Move_SetAttackOnLeftClick: they toggle the supplemental click-mode flag
// HandleClick consults.
func (c *Core) SetMoveOnLeftClick()   { c.clickMode = ClickMove }
func (c *Core) SetAttackOnLeftClick() { c.clickMode = ClickAttack }

// HandleClick dispatches a left-click on target with the given selection
// according to the current click mode (supplemental, see SPEC_FULL.md).
func (c *Core) HandleClick(selection []Uid, target mgl64.Vec2) bool {
	return c.makeFlock(selection, target, c.clickMode == ClickAttack)
}

// SetSeekEnemies is Move_SetSeekEnemies: explicitly transitions ent into
// SEEK_ENEMIES (§4.2: "ARRIVED → SEEK_ENEMIES [explicit SetSeekEnemies]").
func (c *Core) SetSeekEnemies(id Uid, faction int) {
	ms, ok := c.stateFor(id)
	if !ok {
		return
	}
	c.removeFromFlocks(id)
	wasStill := ms.State.Still()
	ms.State = SeekEnemies
	ms.FactionSeek = faction
	if wasStill {
		c.releaseBlocker(id, ms)
		c.emit(MotionStart, id, c.agents[id].XZ())
	}
}

// UpdatePos is Move_UpdatePos: the host is mutating ent's position out of
// band (e.g. scripted teleport); update nav-blocker accounting so a
// still agent's blocker tracks its new position.
func (c *Core) UpdatePos(id Uid, pos mgl64.Vec3) {
	a, ok := c.agents[id]
	if !ok {
		return
	}
	a.Pos = pos
	c.agents[id] = a
	ms, ok := c.stateFor(id)
	if !ok {
		return
	}
	if ms.Blocking {
		c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
		ms.LastStopPos = a.XZ()
		c.nav.AcquireBlocker(ms.LastStopPos, ms.LastStopRadius)
	}
	c.positions.SetPosition(id, pos)
}

// UpdateSelectionRadius is Move_UpdateSelectionRadius: re-acquires a still
// agent's blocker at the new radius so accounting stays consistent.
func (c *Core) UpdateSelectionRadius(id Uid, r float64) {
	a, ok := c.agents[id]
	if !ok {
		return
	}
	a.SelectionRadius = r
	c.agents[id] = a
	ms, ok := c.stateFor(id)
	if !ok {
		return
	}
	if ms.Blocking {
		c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
		ms.LastStopRadius = r
		c.nav.AcquireBlocker(ms.LastStopPos, ms.LastStopRadius)
	}
}

func (c *Core) emit(kind EventKind, id Uid, pos mgl64.Vec2) {
	if c.events == nil {
		return
	}
	c.events.Emit(MotionEvent{Kind: kind, Agent: id, Pos: pos, Tick: c.tick})
}

func (c *Core) releaseBlocker(id Uid, ms *MoveState) {
	if !ms.Blocking {
		return
	}
	c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
	ms.Blocking = false
}

func (c *Core) acquireBlockerAt(id Uid, ms *MoveState, pos mgl64.Vec2, radius float64) {
	if ms.Blocking {
		panic("movement: acquireBlockerAt on an already-blocking agent")
	}
	ms.LastStopPos = pos
	ms.LastStopRadius = radius
	ms.Blocking = true
	c.nav.AcquireBlocker(pos, radius)
}

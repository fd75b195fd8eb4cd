package movement

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/ashenvale/rtscore/movement/ringbuf"
)

// snapshotVersion guards the wire shape of a saved snapshot. Load rejects a
// stream stamped with a version it does not understand.
const snapshotVersion = 1

// snapshotHeader travels with every saved snapshot so operator tooling can
// tell two snapshots apart at a glance without diffing their bodies.
type snapshotHeader struct {
	Version int
	ID      uuid.UUID
}

type savedFlock struct {
	Members  []Uid
	TargetXZ mgl64.Vec2
	DestID   DestID
}

type savedAgent struct {
	Uid           Uid
	State         State
	Vdes          mgl64.Vec2
	Velocity      mgl64.Vec2
	Blocking      bool
	WaitPrev      State
	WaitTicksLeft int
	FactionSeek   int
	VelHist       []mgl64.Vec2
	VelHistIdx    int
	VelHistCount  int
}

type snapshot struct {
	Header snapshotHeader
	Tick   int64
	Flocks []savedFlock
	Agents []savedAgent
}

// SaveState is Move_SaveState (§4.9): serialises flock membership and every
// agent's movement state (not including last_stop_pos/last_stop_radius,
// which are intentionally reconstructed from position on load to avoid
// drift) to w.
func (c *Core) SaveState(w io.Writer) error {
	snap := snapshot{
		Header: snapshotHeader{Version: snapshotVersion, ID: uuid.New()},
		Tick:   c.tick,
	}
	for _, f := range c.flocks {
		sf := savedFlock{TargetXZ: f.targetXZ, DestID: f.destID}
		for id := range f.members {
			sf.Members = append(sf.Members, id)
		}
		snap.Flocks = append(snap.Flocks, sf)
	}
	for id := range c.agents {
		ms, ok := c.stateFor(id)
		if !ok {
			continue
		}
		data, idx, count := ms.VelHist.Raw()
		snap.Agents = append(snap.Agents, savedAgent{
			Uid:           id,
			State:         ms.State,
			Vdes:          ms.Vdes,
			Velocity:      ms.Velocity,
			Blocking:      ms.Blocking,
			WaitPrev:      ms.WaitPrev,
			WaitTicksLeft: ms.WaitTicksLeft,
			FactionSeek:   ms.FactionSeek,
			VelHist:       append([]mgl64.Vec2(nil), data...),
			VelHistIdx:    idx,
			VelHistCount:  count,
		})
	}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("movement: save: %w", err)
	}
	return nil
}

// LoadState is Move_LoadState (§4.9): replaces c's flock registry and every
// known agent's movement state with r's contents. Agents must already be
// registered via AddEntity (so their Agent record — position, radius,
// flags — is known); a saved agent with no matching live entity is skipped.
func (c *Core) LoadState(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("movement: load: %w", err)
	}
	if snap.Header.Version != snapshotVersion {
		return fmt.Errorf("movement: load: unsupported snapshot version %d", snap.Header.Version)
	}

	c.flocks = nil
	c.agentFlock = make(map[Uid]*flock)
	c.destFlock = make(map[DestID]*flock)
	c.tick = snap.Tick

	for _, sf := range snap.Flocks {
		f := newFlock(sf.TargetXZ, sf.DestID)
		for _, id := range sf.Members {
			f.add(id)
			c.agentFlock[id] = f
		}
		c.flocks = append(c.flocks, f)
		c.destFlock[sf.DestID] = f
	}

	for _, sa := range snap.Agents {
		a, ok := c.agents[sa.Uid]
		if !ok {
			continue
		}
		ms, ok := c.stateFor(sa.Uid)
		if !ok {
			ms = newMoveState(a.XZ(), a.SelectionRadius)
			c.putState(sa.Uid, ms)
			c.nav.AcquireBlocker(ms.LastStopPos, ms.LastStopRadius)
			ms, _ = c.stateFor(sa.Uid)
		}

		wasBlocking := ms.Blocking
		ms.State = sa.State
		ms.Vdes = sa.Vdes
		ms.Velocity = sa.Velocity
		ms.Blocking = sa.Blocking
		ms.WaitPrev = sa.WaitPrev
		ms.WaitTicksLeft = sa.WaitTicksLeft
		ms.FactionSeek = sa.FactionSeek
		ms.LastStopPos = a.XZ()
		ms.LastStopRadius = a.SelectionRadius
		ms.VelHist = ringbuf.LoadRaw(sa.VelHist, sa.VelHistIdx, sa.VelHistCount)

		if wasBlocking && !ms.Blocking {
			// Newly-created state defaults to blocking; the load snapshot
			// says otherwise, so release the blocker it never asked for.
			c.nav.ReleaseBlocker(ms.LastStopPos, ms.LastStopRadius)
		} else if !wasBlocking && ms.Blocking {
			c.nav.AcquireBlocker(ms.LastStopPos, ms.LastStopRadius)
		}
	}
	return nil
}

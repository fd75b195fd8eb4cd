package navtest

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/ashenvale/rtscore/movement"
)

// cellSize is the broad-phase bucket width; Neighbours only ever needs to
// scan the query radius's surrounding cells, not every entity.
const cellSize = 16.0

// Grid is a minimal movement.PositionStore backed by an in-memory spatial
// hash, standing in for the out-of-scope entity/position store during tests
// and small demos.
type Grid struct {
	entities map[movement.Uid]movement.Agent
	cells    map[uint64][]movement.Uid
}

// NewGrid returns an empty Grid.
func NewGrid() *Grid {
	return &Grid{
		entities: make(map[movement.Uid]movement.Agent),
		cells:    make(map[uint64][]movement.Uid),
	}
}

// Put inserts or updates ent's tracked position in the grid.
func (g *Grid) Put(ent movement.Agent) {
	if old, ok := g.entities[ent.Uid]; ok {
		g.removeFromCell(old)
	}
	g.entities[ent.Uid] = ent
	g.addToCell(ent)
}

// Remove drops id from the grid.
func (g *Grid) Remove(id movement.Uid) {
	ent, ok := g.entities[id]
	if !ok {
		return
	}
	g.removeFromCell(ent)
	delete(g.entities, id)
}

func cellKey(x, z float64) uint64 {
	cx := strconv.FormatInt(int64(math.Floor(x/cellSize)), 10)
	cz := strconv.FormatInt(int64(math.Floor(z/cellSize)), 10)
	h := fnv1a.HashString64(cx)
	return fnv1a.AddString64(h, cz)
}

func (g *Grid) addToCell(ent movement.Agent) {
	k := cellKey(ent.Pos.X(), ent.Pos.Z())
	g.cells[k] = append(g.cells[k], ent.Uid)
}

func (g *Grid) removeFromCell(ent movement.Agent) {
	k := cellKey(ent.Pos.X(), ent.Pos.Z())
	ids := g.cells[k]
	for i, id := range ids {
		if id == ent.Uid {
			ids[i] = ids[len(ids)-1]
			g.cells[k] = ids[:len(ids)-1]
			break
		}
	}
}

// Neighbours implements movement.PositionStore: a brute-force scan of the
// square block of cells around pos reaching ceil(radius/cellSize)+1 cells in
// each direction, filtered to radius and exclude.
func (g *Grid) Neighbours(pos mgl64.Vec2, radius float64, exclude movement.Uid) []movement.Agent {
	var out []movement.Agent
	cx := math.Floor(pos.X() / cellSize)
	cz := math.Floor(pos.Y() / cellSize)
	span := int(math.Ceil(radius/cellSize)) + 1

	seen := make(map[movement.Uid]struct{})
	for dx := -span; dx <= span; dx++ {
		for dz := -span; dz <= span; dz++ {
			k := cellKey((cx+float64(dx))*cellSize, (cz+float64(dz))*cellSize)
			for _, id := range g.cells[k] {
				if id == exclude {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				a, ok := g.entities[id]
				if !ok {
					continue
				}
				if a.XZ().Sub(pos).Len() <= radius {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// SetPosition commits id's new world position.
func (g *Grid) SetPosition(id movement.Uid, pos mgl64.Vec3) {
	ent, ok := g.entities[id]
	if !ok {
		return
	}
	g.removeFromCell(ent)
	ent.Pos = pos
	g.entities[id] = ent
	g.addToCell(ent)
}

// SetOrientation is a no-op: navtest's Grid does not track facing.
func (g *Grid) SetOrientation(_ movement.Uid, _ float64) {}

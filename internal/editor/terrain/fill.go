package terrain

import (
	"fmt"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// Fill is a candidate change over a box: every cell set to Tile, or
// cleared when Tile is nil.
type Fill struct {
	Box  grid.AABB
	Tile *TileData
}

func FillFromAABB(box grid.AABB, tile *TileData) Fill {
	return Fill{Box: box, Tile: tile}
}

// ChangeError explains why a fill was rejected.
type ChangeError struct {
	Code   string
	Reason string
}

func (e *ChangeError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Reason) }

// Validator is the feasibility check consulted before a terrain change is sent.
type Validator interface {
	CanChange(f Fill) error
}

// CanChange accepts a fill only if it stays in bounds, respects the cell
// limit and would alter at least one tile.
func (m *Map) CanChange(f Fill) error {
	size := f.Box.Size()
	cells := size.X * size.Y * size.Z
	if max := m.Bounds.MaxCells; max > 0 && cells > max {
		return &ChangeError{Code: protocol.ErrBadRequest, Reason: fmt.Sprintf("fill of %d cells exceeds %d", cells, max)}
	}
	lo, hi := f.Box.Min(), f.Box.Max()
	if !m.InBounds(lo) || !m.InBounds(hi) {
		return &ChangeError{Code: protocol.ErrInvalidTarget, Reason: "fill leaves the map bounds"}
	}

	changes := false
	f.Box.Cells(func(p grid.Vec3i) {
		if changes {
			return
		}
		cur := m.Get(p)
		if f.Tile == nil {
			changes = !cur.Empty()
		} else {
			changes = cur != *f.Tile
		}
	})
	if !changes {
		return &ChangeError{Code: protocol.ErrConflict, Reason: "fill changes nothing"}
	}
	return nil
}

// Apply writes the fill and returns the number of cells visited.
func (m *Map) Apply(f Fill) int {
	var t TileData
	if f.Tile != nil {
		t = *f.Tile
	}
	n := 0
	f.Box.Cells(func(p grid.Vec3i) {
		m.Set(p, t)
		n++
	})
	return n
}

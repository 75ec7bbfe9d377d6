// Package terrain holds the tile map the terrain tool edits and the
// feasibility check applied to candidate fills.
package terrain

import (
	"fmt"
	"sort"

	"voxeledit.ai/internal/sim/grid"
)

// ChunkEdge is the side of a cubic chunk in cells.
const ChunkEdge = 16

// TileData is one placed tile. Tile 0 is empty space.
type TileData struct {
	Tile        uint16     `json:"tile"`
	Orientation grid.Vec3i `json:"orientation"`
}

func (t TileData) Empty() bool { return t.Tile == 0 }

type ChunkKey struct {
	CX, CY, CZ int
}

type Chunk struct {
	Key   ChunkKey
	Tiles []TileData // len = 16*16*16
	count int
}

func newChunk(k ChunkKey) *Chunk {
	return &Chunk{Key: k, Tiles: make([]TileData, ChunkEdge*ChunkEdge*ChunkEdge)}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkEdge + y*ChunkEdge*ChunkEdge
}

func (c *Chunk) get(x, y, z int) TileData { return c.Tiles[c.index(x, y, z)] }

func (c *Chunk) set(x, y, z int, t TileData) {
	i := c.index(x, y, z)
	prev := c.Tiles[i]
	if prev == t {
		return
	}
	switch {
	case prev.Empty() && !t.Empty():
		c.count++
	case !prev.Empty() && t.Empty():
		c.count--
	}
	c.Tiles[i] = t
}

// Bounds limits where tiles may exist. Zero values disable a limit.
type Bounds struct {
	Radius    int // |x|,|z| <= Radius
	MinY      int
	MaxY      int
	MaxCells  int // largest fill accepted in one change
	hasHeight bool
}

func (b Bounds) WithHeight(minY, maxY int) Bounds {
	b.MinY, b.MaxY, b.hasHeight = minY, maxY, true
	return b
}

// Map is a sparse chunked tile store.
type Map struct {
	Bounds Bounds
	Chunks map[ChunkKey]*Chunk
}

func NewMap(b Bounds) *Map {
	return &Map{Bounds: b, Chunks: map[ChunkKey]*Chunk{}}
}

func (m *Map) InBounds(p grid.Vec3i) bool {
	if r := m.Bounds.Radius; r > 0 {
		if p.X < -r || p.X > r || p.Z < -r || p.Z > r {
			return false
		}
	}
	if m.Bounds.hasHeight && (p.Y < m.Bounds.MinY || p.Y > m.Bounds.MaxY) {
		return false
	}
	return true
}

func locate(p grid.Vec3i) (ChunkKey, int, int, int) {
	k := ChunkKey{CX: floorDiv(p.X, ChunkEdge), CY: floorDiv(p.Y, ChunkEdge), CZ: floorDiv(p.Z, ChunkEdge)}
	return k, mod(p.X, ChunkEdge), mod(p.Y, ChunkEdge), mod(p.Z, ChunkEdge)
}

func (m *Map) Get(p grid.Vec3i) TileData {
	k, x, y, z := locate(p)
	ch := m.Chunks[k]
	if ch == nil {
		return TileData{}
	}
	return ch.get(x, y, z)
}

func (m *Map) Set(p grid.Vec3i, t TileData) {
	if !m.InBounds(p) {
		return
	}
	k, x, y, z := locate(p)
	ch := m.Chunks[k]
	if ch == nil {
		if t.Empty() {
			return
		}
		ch = newChunk(k)
		m.Chunks[k] = ch
	}
	ch.set(x, y, z, t)
	if ch.count == 0 {
		delete(m.Chunks, k)
	}
}

// Count returns the number of non-empty tiles.
func (m *Map) Count() int {
	n := 0
	for _, ch := range m.Chunks {
		n += ch.count
	}
	return n
}

func (m *Map) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(m.Chunks))
	for k := range m.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// RestoreChunk installs a full chunk, replacing any loaded one. Tiles is
// indexed x + z*ChunkEdge + y*ChunkEdge*ChunkEdge.
func (m *Map) RestoreChunk(k ChunkKey, tiles []TileData) error {
	if len(tiles) != ChunkEdge*ChunkEdge*ChunkEdge {
		return fmt.Errorf("chunk %v: %d tiles", k, len(tiles))
	}
	c := newChunk(k)
	for i, t := range tiles {
		if !t.Empty() {
			c.Tiles[i] = t
			c.count++
		}
	}
	if c.count == 0 {
		delete(m.Chunks, k)
		return nil
	}
	m.Chunks[k] = c
	return nil
}

package relay

import (
	"fmt"
	"path/filepath"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/persistence/snapshot"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// ExportSnapshot captures the authoritative state. It must run on the
// relay goroutine, or before Run starts.
func (r *Relay) ExportSnapshot() snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header:       snapshot.Header{Version: snapshot.Version, Tick: r.tick},
		NextClientID: uint64(r.nextID),
		Backlog:      append([][]byte(nil), r.changes...),
	}
	for _, k := range r.tiles.LoadedChunkKeys() {
		ch := r.tiles.Chunks[k]
		ids := make([]uint16, len(ch.Tiles))
		var oriented []snapshot.OrientedV1
		for i, t := range ch.Tiles {
			ids[i] = t.Tile
			if t.Orientation != (grid.Vec3i{}) {
				oriented = append(oriented, snapshot.OrientedV1{Index: i, Orientation: t.Orientation.ToArray()})
			}
		}
		s.Chunks = append(s.Chunks, snapshot.ChunkV1{CX: k.CX, CY: k.CY, CZ: k.CZ, Tiles: snapshot.EncodeTiles(ids), Oriented: oriented})
	}
	for _, p := range r.placed.All() {
		s.Actors = append(s.Actors, snapshot.ActorV1{
			ID:        string(p.ID),
			Prototype: p.Prototype,
			Position:  p.Position.ToArray(),
			Rotation:  actors.QuatToArray(p.Rotation),
			Bounds:    p.Bounds.ToArray(),
		})
	}
	return s
}

// ImportSnapshot replaces the relay state. Call it before Run.
func (r *Relay) ImportSnapshot(s snapshot.SnapshotV1) error {
	tiles := terrain.NewMap(r.cfg.Map)
	for _, c := range s.Chunks {
		ids, err := snapshot.DecodeTiles(c.Tiles, terrain.ChunkEdge*terrain.ChunkEdge*terrain.ChunkEdge)
		if err != nil {
			return fmt.Errorf("snapshot chunk %d,%d,%d: %w", c.CX, c.CY, c.CZ, err)
		}
		data := make([]terrain.TileData, len(ids))
		for i, id := range ids {
			data[i].Tile = id
		}
		for _, o := range c.Oriented {
			if o.Index < 0 || o.Index >= len(data) {
				return fmt.Errorf("snapshot chunk %d,%d,%d: orientation index %d", c.CX, c.CY, c.CZ, o.Index)
			}
			data[o.Index].Orientation = grid.FromArray(o.Orientation)
		}
		if err := tiles.RestoreChunk(terrain.ChunkKey{CX: c.CX, CY: c.CY, CZ: c.CZ}, data); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	placed := actors.NewStore()
	for _, a := range s.Actors {
		placed.Put(actors.Placed{
			ID:        actors.ID(a.ID),
			Prototype: a.Prototype,
			Position:  grid.FromArray(a.Position),
			Rotation:  actors.QuatFromArray(a.Rotation),
			Bounds:    grid.FromArray(a.Bounds),
		})
	}

	r.tiles = tiles
	r.placed = placed
	r.tick = s.Header.Tick
	r.nextID = protocol.ClientID(s.NextClientID)
	r.changes = append([][]byte(nil), s.Backlog...)
	return nil
}

func (r *Relay) writeSnapshot() {
	if r.cfg.SnapshotDir == "" {
		return
	}
	path := filepath.Join(r.cfg.SnapshotDir, snapshot.FileName(r.tick))
	if err := snapshot.WriteSnapshot(path, r.ExportSnapshot()); err != nil {
		r.logger.Printf("snapshot tick=%d: %v", r.tick, err)
		return
	}
	r.logger.Printf("snapshot tick=%d path=%s", r.tick, path)
	if r.journal != nil {
		if err := r.journal.Checkpoint(); err != nil {
			r.logger.Printf("journal checkpoint tick=%d: %v", r.tick, err)
		}
	}
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/terrain"
	persistlog "voxeledit.ai/internal/persistence/log"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// state rebuilds the relay's map and actor store from accepted entries.
type state struct {
	tiles  *terrain.Map
	placed *actors.Store

	entries  int
	rejected int
	byType   map[string]int
	lastTick uint64
}

func newState(b terrain.Bounds) *state {
	return &state{
		tiles:  terrain.NewMap(b),
		placed: actors.NewStore(),
		byType: map[string]int{},
	}
}

func (s *state) apply(e persistlog.Entry) (string, error) {
	s.entries++
	s.byType[e.Type]++
	if e.Tick > s.lastTick {
		s.lastTick = e.Tick
	}
	head := fmt.Sprintf("tick=%d client=%d type=%s", e.Tick, e.ClientID, e.Type)
	if !e.Accepted {
		s.rejected++
		return head + " rejected code=" + e.Code, nil
	}

	msg, err := protocol.Decode(e.Msg)
	if err != nil {
		return "", fmt.Errorf("tick %d: %w", e.Tick, err)
	}
	switch m := msg.(type) {
	case *protocol.MapChangeMsg:
		switch {
		case m.Insertion != nil:
			tile := terrain.TileData{Tile: m.Insertion.Tile.Tile, Orientation: grid.FromArray(m.Insertion.Tile.Orientation)}
			n := s.tiles.Apply(terrain.FillFromAABB(box(m.Insertion.Box), &tile))
			return fmt.Sprintf("%s insert tile=%d box=%v cells=%d", head, tile.Tile, m.Insertion.Box, n), nil
		case m.Removal != nil:
			n := s.tiles.Apply(terrain.FillFromAABB(box(m.Removal.Box), nil))
			return fmt.Sprintf("%s remove box=%v cells=%d", head, m.Removal.Box, n), nil
		}
	case *protocol.ActorChangeMsg:
		switch {
		case m.Insertion != nil:
			snap, err := actors.Decode(m.Insertion.Payload)
			if err != nil {
				return "", fmt.Errorf("tick %d: %w", e.Tick, err)
			}
			s.placed.Put(snap.Placed())
			return fmt.Sprintf("%s insert actor=%s prototype=%d at=%v", head, snap.ID, snap.Prototype, snap.Position), nil
		case m.Removal != nil:
			s.placed.Remove(actors.ID(m.Removal.ActorID))
			return fmt.Sprintf("%s remove actor=%s", head, m.Removal.ActorID), nil
		}
	}
	return head, nil
}

func (s *state) summary() string {
	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", t, s.byType[t]))
	}
	return fmt.Sprintf("entries=%d rejected=%d last_tick=%d tiles=%d actors=%d [%s]",
		s.entries, s.rejected, s.lastTick, s.tiles.Count(), s.placed.Len(), strings.Join(parts, " "))
}

func box(b protocol.Box) grid.AABB {
	return grid.NewAABB(grid.FromArray(b.Center), grid.FromArray(b.Dimensions))
}

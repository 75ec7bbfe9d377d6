package editor

import (
	"fmt"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// HandleRaw decodes a message from the replicated channel and queues it.
func (e *Engine) HandleRaw(b []byte) error {
	msg, err := protocol.Decode(b)
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	e.Receive(msg)
	return nil
}

// Receive queues an inbound message. It is applied after the passes of
// the next Tick so no pass sees a half-applied update.
func (e *Engine) Receive(msg any) {
	e.queue.Push(func(e *Engine) { e.apply(msg) })
}

func (e *Engine) apply(msg any) {
	switch m := msg.(type) {
	case *protocol.SelectionBoundsConfirmedMsg:
		e.confirm(m.ClientID, grid.FromArray(m.Origin), grid.FromArray(m.Dimensions))

	case *protocol.ActivateToolBoxMsg:
		k, ok := activationKind(m.Type)
		if !ok || m.ClientID == e.local {
			return
		}
		e.setActive(m.ClientID, k)

	case *protocol.ActorToolRotationMsg:
		if m.ClientID == e.local {
			return
		}
		if v := e.volumes[volumeKey{m.ClientID, KindActor}]; v != nil {
			e.rotate(v, actors.QuatFromArray(m.Rotation))
		}

	case *protocol.ActorToolSelectionMsg:
		if m.ClientID == e.local {
			return
		}
		if v := e.volumes[volumeKey{m.ClientID, KindActor}]; v != nil {
			e.chooseActor(v, m.ActorID)
		}

	case *protocol.MapChangeMsg:
		e.applyMapChange(m)

	case *protocol.ActorChangeMsg:
		e.applyActorChange(m)

	case *protocol.AckMsg:
		if !m.Accepted {
			e.logger.Printf("change rejected for=%s code=%s: %s", m.AckFor, m.Code, m.Message)
		}

	default:
		e.logger.Printf("inbound dropped type=%T", msg)
	}
}

func (e *Engine) applyMapChange(m *protocol.MapChangeMsg) {
	switch {
	case m.Insertion != nil:
		tile := terrain.TileData{Tile: m.Insertion.Tile.Tile, Orientation: grid.FromArray(m.Insertion.Tile.Orientation)}
		e.tiles.Apply(terrain.FillFromAABB(wireBox(m.Insertion.Box), &tile))
	case m.Removal != nil:
		e.tiles.Apply(terrain.FillFromAABB(wireBox(m.Removal.Box), nil))
	}
}

func (e *Engine) applyActorChange(m *protocol.ActorChangeMsg) {
	switch {
	case m.Insertion != nil:
		snap, err := actors.Decode(m.Insertion.Payload)
		if err != nil {
			e.logger.Printf("actor insertion ignored actor=%s: %v", m.Insertion.ActorID, err)
			return
		}
		e.placed.Put(snap.Placed())
	case m.Removal != nil:
		e.placed.Remove(actors.ID(m.Removal.ActorID))
	}
}

func wireBox(b protocol.Box) grid.AABB {
	return grid.NewAABB(grid.FromArray(b.Center), grid.FromArray(b.Dimensions))
}

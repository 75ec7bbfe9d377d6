package relay

import (
	"encoding/json"
	"fmt"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/persistence/indexdb"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

func (r *Relay) handle(env Envelope) {
	base, err := protocol.DecodeBase(env.Raw)
	if err != nil {
		r.reject(env, "", protocol.ErrProtoBadRequest, "malformed message")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		r.reject(env, base.Type, protocol.ErrProtoVersion, "bad protocol_version")
		return
	}
	msg, err := protocol.Decode(env.Raw)
	if err != nil {
		r.reject(env, base.Type, protocol.ErrProtoBadRequest, err.Error())
		return
	}

	switch m := msg.(type) {
	case *protocol.UpdateSelectionBoundsMsg:
		if !r.owns(env, base.Type, m.ClientID) {
			return
		}
		b, _ := json.Marshal(protocol.SelectionBoundsConfirmedMsg{
			Type:            protocol.TypeSelectionBoundsConfirmed,
			ProtocolVersion: protocol.Version,
			ClientID:        m.ClientID,
			Origin:          m.Origin,
			Dimensions:      m.Dimensions,
		})
		if _, ok := r.clients[m.ClientID]; ok {
			r.bounds[m.ClientID] = b
		}
		r.broadcast(b)

	case *protocol.ActivateToolBoxMsg:
		r.echo(env, base.Type, m.ClientID)
	case *protocol.ActorToolRotationMsg:
		r.echo(env, base.Type, m.ClientID)
	case *protocol.ActorToolSelectionMsg:
		r.echo(env, base.Type, m.ClientID)

	case *protocol.MapChangeMsg:
		if !r.owns(env, base.Type, m.HistoryClientID) {
			return
		}
		r.mapChange(env, m)

	case *protocol.ActorChangeMsg:
		if !r.owns(env, base.Type, m.HistoryClientID) {
			return
		}
		r.actorChange(env, m)

	default:
		r.reject(env, base.Type, protocol.ErrProtoBadRequest, fmt.Sprintf("%s is not accepted from clients", base.Type))
	}
}

// owns reports whether a message speaks for its sender.
func (r *Relay) owns(env Envelope, typ string, id protocol.ClientID) bool {
	if id == env.ClientID {
		return true
	}
	r.reject(env, typ, protocol.ErrProtoBadRequest, fmt.Sprintf("client_id %d does not match sender %d", id, env.ClientID))
	return false
}

func (r *Relay) echo(env Envelope, typ string, id protocol.ClientID) {
	if !r.owns(env, typ, id) {
		return
	}
	r.broadcast(env.Raw)
}

func (r *Relay) reject(env Envelope, typ, code, message string) {
	r.logger.Printf("reject client=%d type=%s code=%s: %s", env.ClientID, typ, code, message)
	r.record(env, typ, false, code)
	r.sendTo(env.ClientID, protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          typ,
		Accepted:        false,
		Code:            code,
		Message:         message,
	})
}

func (r *Relay) accept(env Envelope, typ string, c indexdb.Change) {
	c.Tick = r.tick
	c.HistoryClientID = env.ClientID
	c.RawJSON = env.Raw
	if r.history != nil {
		r.history.Record(c)
	}
	r.record(env, typ, true, "")
	r.changes = append(r.changes, env.Raw)
	r.broadcastChange(env.Raw)
}

func (r *Relay) mapChange(env Envelope, m *protocol.MapChangeMsg) {
	var (
		f      terrain.Fill
		change indexdb.Change
	)
	switch {
	case m.Insertion != nil && m.Removal == nil:
		tile := terrain.TileData{Tile: m.Insertion.Tile.Tile, Orientation: grid.FromArray(m.Insertion.Tile.Orientation)}
		if tile.Empty() {
			r.reject(env, m.Type, protocol.ErrBadRequest, "insertion of the empty tile")
			return
		}
		f = terrain.FillFromAABB(toAABB(m.Insertion.Box), &tile)
		change = indexdb.Change{Kind: indexdb.KindMap, Op: indexdb.OpInsert, Box: m.Insertion.Box, Tile: tile.Tile}
	case m.Removal != nil && m.Insertion == nil:
		f = terrain.FillFromAABB(toAABB(m.Removal.Box), nil)
		change = indexdb.Change{Kind: indexdb.KindMap, Op: indexdb.OpRemove, Box: m.Removal.Box}
	default:
		r.reject(env, m.Type, protocol.ErrBadRequest, "exactly one of insertion and removal")
		return
	}

	if err := r.tiles.CanChange(f); err != nil {
		code := protocol.ErrInternal
		if ce, ok := err.(*terrain.ChangeError); ok {
			code = ce.Code
		}
		r.reject(env, m.Type, code, err.Error())
		return
	}
	r.tiles.Apply(f)
	r.accept(env, m.Type, change)
}

func (r *Relay) actorChange(env Envelope, m *protocol.ActorChangeMsg) {
	switch {
	case m.Insertion != nil && m.Removal == nil:
		in := m.Insertion
		snap, err := actors.Decode(in.Payload)
		if err != nil {
			r.reject(env, m.Type, protocol.ErrBadRequest, err.Error())
			return
		}
		if in.ActorID == "" || string(snap.ID) != in.ActorID {
			r.reject(env, m.Type, protocol.ErrBadRequest, "payload does not match actor_id")
			return
		}
		if _, exists := r.placed.Get(snap.ID); exists {
			r.reject(env, m.Type, protocol.ErrConflict, "actor already placed")
			return
		}
		p := snap.Placed()
		if !r.tiles.InBounds(p.Position) {
			r.reject(env, m.Type, protocol.ErrInvalidTarget, "actor outside the map bounds")
			return
		}
		r.placed.Put(p)
		r.accept(env, m.Type, indexdb.Change{Kind: indexdb.KindActor, Op: indexdb.OpInsert, ActorID: in.ActorID})

	case m.Removal != nil && m.Insertion == nil:
		if !r.placed.Remove(actors.ID(m.Removal.ActorID)) {
			r.reject(env, m.Type, protocol.ErrNoResource, "no such actor")
			return
		}
		r.accept(env, m.Type, indexdb.Change{Kind: indexdb.KindActor, Op: indexdb.OpRemove, ActorID: m.Removal.ActorID})

	default:
		r.reject(env, m.Type, protocol.ErrBadRequest, "exactly one of insertion and removal")
	}
}

func toAABB(b protocol.Box) grid.AABB {
	return grid.NewAABB(grid.FromArray(b.Center), grid.FromArray(b.Dimensions))
}

package editor

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/editor/feature/bounds"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
	"voxeledit.ai/internal/sim/input"
)

var (
	moveActions = map[bounds.Direction]string{
		bounds.Forward: input.MoveForward,
		bounds.Back:    input.MoveBack,
		bounds.Left:    input.MoveLeft,
		bounds.Right:   input.MoveRight,
		bounds.Up:      input.MoveUp,
		bounds.Down:    input.MoveDown,
	}
	expandActions = map[bounds.Direction]string{
		bounds.Forward: input.ExpandForward,
		bounds.Back:    input.ExpandBack,
		bounds.Left:    input.ExpandLeft,
		bounds.Right:   input.ExpandRight,
		bounds.Up:      input.ExpandUp,
		bounds.Down:    input.ExpandDown,
	}
)

func (e *Engine) fired(in input.Source, actions map[bounds.Direction]string) (bounds.Direction, bool) {
	return bounds.Last(func(d bounds.Direction) bool {
		return in.Repeated(actions[d], e.opts.RepeatInterval)
	})
}

func (e *Engine) movementPass(in input.Source) {
	v := e.operative(e.local)
	if v == nil {
		return
	}
	if d, ok := e.fired(in, moveActions); ok {
		e.submitMovement(v, bounds.Movement(d, v.Basis))
	}
}

// expansionPass resizes the terrain volume only, and only while active.
func (e *Engine) expansionPass(in input.Source) {
	v := e.volumes[volumeKey{e.local, KindTerrain}]
	if v == nil || !v.Active {
		return
	}
	if d, ok := e.fired(in, expandActions); ok {
		e.submitExpansion(v, bounds.Expansion(d, v.Basis))
	}
}

// QuarterTurn is the actor tool rotation step. Positive turns rotate left.
func QuarterTurn(turns int) mgl32.Quat {
	return mgl32.QuatRotate(float32(turns)*math.Pi/2, axis.Up)
}

func (e *Engine) rotationPass(in input.Source) {
	v := e.volumes[volumeKey{e.local, KindActor}]
	if v == nil || !v.Active {
		return
	}
	steps := []struct {
		action string
		turns  int
	}{
		{input.RotateLeft, 1},
		{input.RotateRight, -1},
	}
	for _, s := range steps {
		if !in.Repeated(s.action, e.opts.RepeatInterval) {
			continue
		}
		delta := QuarterTurn(s.turns)
		e.rotate(v, delta)
		e.emit(protocol.ActorToolRotationMsg{
			Type:            protocol.TypeActorToolRotation,
			ProtocolVersion: protocol.Version,
			ClientID:        v.Client,
			Rotation:        actors.QuatToArray(delta),
		})
	}
}

// rotate composes delta into the volume's rotation and turns its box
// about its own center.
func (e *Engine) rotate(v *Volume, delta mgl32.Quat) {
	v.Rotation = v.Rotation.Mul(delta).Normalize()
	e.setDimensions(v, grid.TurnDimensions(v.Dimensions, grid.QuarterTurns(delta)))
	e.foldDimensions(v)
	v.Preview.Place(e.scene, v.Dimensions, e.opts.Tile, v.Rotation)
}

// SelectActor swaps the local actor volume's preview for a clone of the
// palette prototype id and announces the choice.
func (e *Engine) SelectActor(id int64) {
	v := e.volumes[volumeKey{e.local, KindActor}]
	if v == nil {
		return
	}
	e.queue.Push(func(e *Engine) {
		if !e.chooseActor(v, id) {
			return
		}
		e.emit(protocol.ActorToolSelectionMsg{
			Type:            protocol.TypeActorToolSelection,
			ProtocolVersion: protocol.Version,
			ClientID:        v.Client,
			ActorID:         id,
		})
	})
}

// chooseActor frees the current preview before attaching the new one.
func (e *Engine) chooseActor(v *Volume, id int64) bool {
	if v.Preview != nil {
		v.Preview.Free(e.scene)
		v.Preview = nil
	}
	inst, ok := e.clone.Clone(id, v.Node)
	if !ok {
		e.logger.Printf("actor selection dropped client=%d actor=%d reason=unknown_prototype", v.Client, id)
		return false
	}
	proto, _ := e.clone.Registry.Lookup(id)
	v.Selection = id
	v.Preview = inst
	e.setDimensions(v, actors.ScaledAndRotatedBounds(proto.Bounds, v.Rotation))
	e.foldDimensions(v)
	inst.Place(e.scene, v.Dimensions, e.opts.Tile, v.Rotation)
	return true
}

func (e *Engine) toolPass(in input.Source) {
	if v, ok := e.ActiveVolume(e.local); ok {
		switch v.Kind {
		case KindTerrain:
			moved := v.Origin != v.toolOrigin
			for _, action := range []string{input.Insertion, input.Removal} {
				if in.JustPressed(action) || (in.Held(action) && moved) {
					e.queueMapChange(v, action == input.Insertion)
				}
			}
		case KindActor:
			if in.JustPressed(input.Insertion) {
				e.queueActorInsertion(v)
			}
			if in.JustPressed(input.Removal) {
				e.queueActorRemoval(v)
			}
		}
	}
	for _, k := range kinds {
		if v := e.volumes[volumeKey{e.local, k}]; v != nil {
			v.toolOrigin = v.Origin
		}
	}
}

// queueMapChange validates a fill over the volume after the pass and
// sends it only if the map accepts it.
func (e *Engine) queueMapChange(v *Volume, insert bool) {
	box := v.Box()
	tile := e.tile
	client := v.Client
	e.queue.Push(func(e *Engine) {
		var fill terrain.Fill
		if insert {
			fill = terrain.FillFromAABB(box, &tile)
		} else {
			fill = terrain.FillFromAABB(box, nil)
		}
		if err := e.validator.CanChange(fill); err != nil {
			e.logger.Printf("map change dropped client=%d insert=%t: %v", client, insert, err)
			return
		}
		msg := protocol.MapChangeMsg{
			Type:            protocol.TypeMapChange,
			ProtocolVersion: protocol.Version,
			HistoryClientID: client,
		}
		wire := protocol.Box{Center: box.Center.ToArray(), Dimensions: box.Dimensions.ToArray()}
		if insert {
			msg.Insertion = &protocol.MapInsertion{
				Box:  wire,
				Tile: protocol.Tile{Tile: tile.Tile, Orientation: tile.Orientation.ToArray()},
			}
		} else {
			msg.Removal = &protocol.MapRemoval{Box: wire}
		}
		e.emit(msg)
	})
}

// queueActorInsertion clones the preview into a standalone snapshot with a
// fresh actor id at the volume's position and sends it.
func (e *Engine) queueActorInsertion(v *Volume) {
	preview := v.Preview
	origin, dims, rot := v.Origin, v.Dimensions, v.Rotation
	client := v.Client
	e.queue.Push(func(e *Engine) {
		if preview == nil {
			e.logger.Printf("actor insertion dropped client=%d reason=no_preview", client)
			return
		}
		snap := actors.Snapshot{
			ID:        actors.NewID(),
			Prototype: preview.Prototype,
			Position:  origin.ToArray(),
			Rotation:  actors.QuatToArray(rot),
			Bounds:    dims.ToArray(),
			Root:      preview.Root.Clone(),
		}
		payload, err := actors.Encode(snap)
		if err != nil {
			e.logger.Printf("actor insertion dropped client=%d: %v", client, err)
			return
		}
		e.emit(protocol.ActorChangeMsg{
			Type:            protocol.TypeActorChange,
			ProtocolVersion: protocol.Version,
			HistoryClientID: client,
			Insertion: &protocol.ActorInsertion{
				ActorID:     string(snap.ID),
				PrototypeID: snap.Prototype,
				Position:    snap.Position,
				Rotation:    snap.Rotation,
				Payload:     payload,
			},
		})
	})
}

func (e *Engine) queueActorRemoval(v *Volume) {
	box := v.Box()
	client := v.Client
	e.queue.Push(func(e *Engine) {
		for _, id := range e.placed.SelectRange(box) {
			e.emit(protocol.ActorChangeMsg{
				Type:            protocol.TypeActorChange,
				ProtocolVersion: protocol.Version,
				HistoryClientID: client,
				Removal:         &protocol.ActorRemoval{ActorID: string(id)},
			})
		}
	})
}

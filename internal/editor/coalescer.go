package editor

import (
	"voxeledit.ai/internal/editor/feature/bounds"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// submitMovement stages a translation of v. With nothing in flight the
// volume moves at once; otherwise only the pending target moves.
func (e *Engine) submitMovement(v *Volume, delta grid.Vec3i) {
	p := e.pending[v.Client]
	if p == nil {
		e.setClientOrigin(v.Client, v.Origin.Add(delta))
		p = &PendingCorrection{Origin: v.Origin, Dimensions: v.Dimensions, Kind: v.Kind}
		e.pending[v.Client] = p
	} else {
		retarget(p, v)
		p.Origin = p.Origin.Add(delta)
	}
	e.sendBounds(v.Client, p)
}

// submitExpansion stages a resize of v anchored on the corner the camera
// basis selects.
func (e *Engine) submitExpansion(v *Volume, delta grid.Vec3i) {
	p := e.pending[v.Client]
	if p == nil {
		box := v.Box()
		shift := bounds.ResolveExpansionAnchor(delta, v.Basis, &box)
		e.setClientOrigin(v.Client, v.Origin.Add(shift))
		e.setDimensions(v, box.Dimensions)
		p = &PendingCorrection{Origin: v.Origin, Dimensions: v.Dimensions, Kind: v.Kind}
		e.pending[v.Client] = p
	} else {
		retarget(p, v)
		box := grid.NewAABB(p.Origin, p.Dimensions)
		shift := bounds.ResolveExpansionAnchor(delta, v.Basis, &box)
		p.Origin = p.Origin.Add(shift)
		p.Dimensions = box.Dimensions
	}
	e.sendBounds(v.Client, p)
}

// retarget points p at v after the client switched tools while a request
// was in flight.
func retarget(p *PendingCorrection, v *Volume) {
	if p.Kind == v.Kind {
		return
	}
	p.Kind = v.Kind
	p.Dimensions = v.Dimensions
	p.liveDims = true
}

// foldDimensions carries a local change to v's dimensions, from a
// rotation or a new actor selection, into the client's pending target and
// resends it. Idle clients have nothing to fold.
func (e *Engine) foldDimensions(v *Volume) {
	p := e.pending[v.Client]
	if p == nil || p.Kind != v.Kind || p.Dimensions == v.Dimensions {
		return
	}
	p.Dimensions = v.Dimensions
	p.liveDims = true
	e.sendBounds(v.Client, p)
}

func (e *Engine) sendBounds(id protocol.ClientID, p *PendingCorrection) {
	e.emit(protocol.UpdateSelectionBoundsMsg{
		Type:            protocol.TypeUpdateSelectionBounds,
		ProtocolVersion: protocol.Version,
		ClientID:        id,
		Origin:          p.Origin.ToArray(),
		Dimensions:      p.Dimensions.ToArray(),
	})
}

// confirm applies authoritative bounds. Every volume of the client takes
// the origin; only the active one takes the dimensions, and not when the
// pending target was raised for another kind or has been overtaken by a
// local dimension change.
func (e *Engine) confirm(id protocol.ClientID, origin, dims grid.Vec3i) {
	if !e.HasClient(id) {
		e.logger.Printf("confirm dropped client=%d reason=unknown_client", id)
		return
	}
	e.setClientOrigin(id, origin)
	if v, ok := e.ActiveVolume(id); ok {
		p := e.pending[id]
		switch {
		case p == nil:
			e.setDimensions(v, dims)
		case p.Kind != v.Kind:
			e.logger.Printf("confirm dimensions kept client=%d reason=kind_switched", id)
		case p.liveDims:
			e.logger.Printf("confirm dimensions kept client=%d reason=local_change", id)
		default:
			e.setDimensions(v, dims)
		}
	}
	delete(e.pending, id)
}

package editor

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/feature/outline"
	"voxeledit.ai/internal/sim/grid"
	"voxeledit.ai/internal/sim/input"
)

// Tick runs one frame: orientation, movement, expansion, rotation and
// tools read the committed state of the previous frame, then queued
// mutations are applied and changed volumes are redrawn. in may be nil
// for an engine that only mirrors remote clients.
func (e *Engine) Tick(in input.Source) {
	e.orientationPass()
	if in != nil {
		e.movementPass(in)
		e.expansionPass(in)
		e.rotationPass(in)
		e.toolPass(in)
	}
	e.queue.Flush(e)
	e.meshPass()
}

func (e *Engine) meshPass() {
	for _, id := range e.clients {
		for _, k := range kinds {
			v := e.volumes[volumeKey{id, k}]
			if v == nil {
				continue
			}
			if v.dirty {
				outline.Build(&v.mesh, v.Dimensions, e.opts.Tile, e.opts.MaxMargin)
				e.scene.SetMesh(v.Node, &v.mesh)
				v.Preview.Place(e.scene, v.Dimensions, e.opts.Tile, v.Rotation)
				v.dirty = false
			}
			if v.moved {
				e.scene.SetTransform(v.Node, grid.ToWorld(v.Origin, e.opts.Tile), mgl32.QuatIdent())
				v.moved = false
			}
		}
	}
}

package editor

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/feature/axis"
)

// Camera is the orientation source a volume follows. changed reports
// whether the orientation moved since the previous call.
type Camera interface {
	Orientation() (forward, right mgl32.Vec3, changed bool)
}

// LookCamera is a Camera driven by explicit Look calls.
type LookCamera struct {
	forward, right mgl32.Vec3
	changed        bool
}

func NewLookCamera(forward mgl32.Vec3) *LookCamera {
	c := &LookCamera{}
	c.Look(forward)
	return c
}

func (c *LookCamera) Look(forward mgl32.Vec3) {
	c.forward = forward
	c.right = axis.RightOf(forward)
	c.changed = true
}

func (c *LookCamera) Orientation() (mgl32.Vec3, mgl32.Vec3, bool) {
	changed := c.changed
	c.changed = false
	return c.forward, c.right, changed
}

// orientationPass reads each client's camera once and refreshes the basis
// of both of its volumes when the camera moved.
func (e *Engine) orientationPass() {
	for _, id := range e.clients {
		t := e.volumes[volumeKey{id, KindTerrain}]
		if t == nil || t.camera == nil {
			continue
		}
		forward, right, changed := t.camera.Orientation()
		if !changed {
			continue
		}
		b := axis.Resolve(forward, right, e.opts.SnapBias)
		for _, k := range kinds {
			if v := e.volumes[volumeKey{id, k}]; v != nil {
				v.Basis = b
			}
		}
	}
}

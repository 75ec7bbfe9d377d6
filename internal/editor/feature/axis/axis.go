// Package axis snaps a continuous camera orientation onto the horizontal
// grid axes.
package axis

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultBias is the turn applied to the reference forward before each
// comparison so the snap does not flicker around the diagonals.
const DefaultBias = math.Pi / 8

var (
	Up = mgl32.Vec3{0, 1, 0}

	PosX = mgl32.Vec3{1, 0, 0}
	NegX = mgl32.Vec3{-1, 0, 0}
	PosZ = mgl32.Vec3{0, 0, 1}
	NegZ = mgl32.Vec3{0, 0, -1}
)

// Basis is a grid-aligned forward/right pair.
type Basis struct {
	Forward mgl32.Vec3
	Right   mgl32.Vec3
}

// DefaultBasis faces +Z with +X on the right.
func DefaultBasis() Basis {
	return Basis{Forward: PosZ, Right: PosX}
}

// Resolve snaps the camera's forward/right pair onto the grid. The camera
// forward is flattened onto the horizontal plane first; right is always
// derived from the snapped forward, never snapped on its own.
func Resolve(forward, right mgl32.Vec3, bias float32) Basis {
	forward[1] = 0

	closer := func(a, b mgl32.Vec3) mgl32.Vec3 {
		if closerToForward(a, b, forward, right, bias) {
			return a
		}
		return b
	}
	snapped := closer(PosZ, closer(NegZ, closer(PosX, NegX)))

	return Basis{
		Forward: exact(snapped),
		Right:   exact(RightOf(snapped)),
	}
}

// exact rounds away the float error a quarter-turn quaternion leaves on a
// cardinal axis and re-normalizes.
func exact(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		v[i] = float32(math.Round(float64(v[i])))
	}
	return v.Normalize()
}

// RightOf turns forward one quarter about Up so that +Z maps to +X.
func RightOf(forward mgl32.Vec3) mgl32.Vec3 {
	return mgl32.QuatRotate(math.Pi/2, Up).Rotate(forward)
}

// closerToForward reports whether a should win over b. The reference
// forward is turned by bias toward the side given by the sign of the
// smaller of the two projections onto right. NaN comparisons keep a.
func closerToForward(a, b, forward, right mgl32.Vec3, bias float32) bool {
	pa, pb := a.Dot(right), b.Dot(right)

	p := pb
	if pa < pb {
		p = pa
	}

	var dir float32
	switch {
	case isNaN(p):
		dir = 0
	case p < 0:
		dir = -1
	default:
		dir = 1
	}

	ref := mgl32.QuatRotate(bias*dir, Up).Rotate(forward)
	da, db := a.Dot(ref), b.Dot(ref)
	if isNaN(da) || isNaN(db) {
		return true
	}
	return da >= db
}

func isNaN(f float32) bool { return f != f }

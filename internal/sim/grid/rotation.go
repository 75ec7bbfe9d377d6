package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NormalizeTurns converts a turn count into a stable quarter-turn count in [0,3].
func NormalizeTurns(r int) int {
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}

// RotateXZ rotates an (x,z) offset around the Y axis by rot quarter turns,
// each turn taking +Z to +X.
func RotateXZ(x, z, rot int) (rx, rz int) {
	switch NormalizeTurns(rot) {
	case 0:
		return x, z
	case 1:
		return z, -x
	case 2:
		return -x, -z
	default:
		return -z, x
	}
}

// TurnDimensions rotates signed box dimensions by rot quarter turns about Y.
// Odd turns swap the X and Z extents; every axis keeps the sign it had
// before the turn so the encoded facing survives.
func TurnDimensions(d Vec3i, rot int) Vec3i {
	if NormalizeTurns(rot)%2 == 0 {
		return d
	}
	return Vec3i{X: d.Z, Y: d.Y, Z: d.X}
}

// QuarterTurns reads how many quarter turns about Y a rotation performs,
// counted in RotateXZ's direction. Rotations that are not yaw quarter
// turns snap to the nearest one.
func QuarterTurns(q mgl32.Quat) int {
	v := q.Rotate(mgl32.Vec3{0, 0, 1})
	x, z := v.X(), v.Z()
	if math.Abs(float64(x)) > math.Abs(float64(z)) {
		if x > 0 {
			return 1
		}
		return 3
	}
	if z < 0 {
		return 2
	}
	return 0
}

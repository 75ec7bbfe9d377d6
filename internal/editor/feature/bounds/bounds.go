// Package bounds turns discrete directional input into grid deltas for a
// selection volume: translations for movement and per-axis dimension
// changes for expansion.
package bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/sim/grid"
)

type Direction int

const (
	None Direction = iota
	Forward
	Back
	Left
	Right
	Up
	Down
)

// Order is the evaluation order of directional inputs within one tick.
var Order = []Direction{Forward, Back, Left, Right, Up, Down}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Back:
		return "back"
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Local is the camera-local unit step: z for forward/back, x for
// left/right, y for up/down.
func (d Direction) Local() grid.Vec3i {
	switch d {
	case Forward:
		return grid.Vec3i{Z: 1}
	case Back:
		return grid.Vec3i{Z: -1}
	case Left:
		return grid.Vec3i{X: -1}
	case Right:
		return grid.Vec3i{X: 1}
	case Up:
		return grid.Vec3i{Y: 1}
	case Down:
		return grid.Vec3i{Y: -1}
	default:
		return grid.Vec3i{}
	}
}

// Last returns the last direction in Order for which fired reports true.
// Simultaneous inputs do not combine.
func Last(fired func(Direction) bool) (Direction, bool) {
	winner := None
	for _, d := range Order {
		if fired(d) {
			winner = d
		}
	}
	return winner, winner != None
}

// Movement converts d into a grid translation using the signed rounded
// horizontal components of the basis.
func Movement(d Direction, b axis.Basis) grid.Vec3i {
	local := d.Local()
	out := horizontal(b.Forward, false).Mul(local.Z).Add(horizontal(b.Right, false).Mul(local.X))
	out.Y = local.Y
	return out
}

// Expansion converts d into a per-axis dimension delta. Absolute basis
// components are used so growth always lands on a true grid axis.
func Expansion(d Direction, b axis.Basis) grid.Vec3i {
	local := d.Local()
	out := horizontal(b.Forward, true).Mul(local.Z).Add(horizontal(b.Right, true).Mul(local.X))
	out.Y = local.Y
	return out
}

func horizontal(v mgl32.Vec3, abs bool) grid.Vec3i {
	x := int(math.Round(float64(v.X())))
	z := int(math.Round(float64(v.Z())))
	if abs {
		x, z = absInt(x), absInt(z)
	}
	return grid.Vec3i{X: x, Z: z}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

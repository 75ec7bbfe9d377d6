package bounds

import (
	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/sim/grid"
)

// ResolveDimensions applies delta to dims. An axis that is at zero width,
// or that the delta would bring to zero, is re-seeded to 2*delta so the
// box leaves the degenerate state symmetrically.
func ResolveDimensions(dims, delta grid.Vec3i) grid.Vec3i {
	out := dims.Add(delta)
	for a := 0; a < 3; a++ {
		d := delta.Get(a)
		if d == 0 {
			continue
		}
		if dims.Get(a) == 0 || out.Get(a) == 0 {
			out.Set(a, 2*d)
		}
	}
	return out
}

// ResolveExpansionAnchor resizes box.Dimensions in place by delta and
// returns the translation to add to box.Center so the anchor corner stays
// fixed. The anchor is the min corner on each axis, swapped for the max
// corner on X (resp. Z) when the basis right points toward -X (resp. -Z),
// and swapped again on any axis whose new dimension is negative.
func ResolveExpansionAnchor(delta grid.Vec3i, b axis.Basis, box *grid.AABB) grid.Vec3i {
	before := *box
	box.Dimensions = ResolveDimensions(box.Dimensions, delta)
	resized := grid.NewAABB(before.Center, box.Dimensions)

	lo, hi := before.Min(), before.Max()
	newLo, newHi := resized.Min(), resized.Max()

	right := horizontal(b.Right, false)
	if right.X < 0 {
		lo.X, hi.X = hi.X, lo.X
		newLo.X, newHi.X = newHi.X, newLo.X
	}
	if right.Z < 0 {
		lo.Z, hi.Z = hi.Z, lo.Z
		newLo.Z, newHi.Z = newHi.Z, newLo.Z
	}

	var shift grid.Vec3i
	for a := 0; a < 3; a++ {
		if box.Dimensions.Get(a) < 0 {
			shift.Set(a, hi.Get(a)-newHi.Get(a))
		} else {
			shift.Set(a, lo.Get(a)-newLo.Get(a))
		}
	}
	return shift
}

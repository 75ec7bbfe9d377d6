package grid

// AABB is a grid box described by its anchor cell and signed dimensions.
// A negative dimension mirrors the box about Center on that axis; a zero
// dimension degenerates to the single Center cell.
type AABB struct {
	Center     Vec3i
	Dimensions Vec3i
}

func NewAABB(center, dimensions Vec3i) AABB {
	return AABB{Center: center, Dimensions: dimensions}
}

// Min returns the lowest occupied cell on every axis.
func (b AABB) Min() Vec3i {
	var out Vec3i
	for axis := 0; axis < 3; axis++ {
		lo, _ := span(b.Center.Get(axis), b.Dimensions.Get(axis))
		out.Set(axis, lo)
	}
	return out
}

// Max returns the highest occupied cell on every axis (inclusive).
func (b AABB) Max() Vec3i {
	var out Vec3i
	for axis := 0; axis < 3; axis++ {
		_, hi := span(b.Center.Get(axis), b.Dimensions.Get(axis))
		out.Set(axis, hi)
	}
	return out
}

// Size is the number of cells covered on each axis.
func (b AABB) Size() Vec3i {
	d := b.Dimensions.Abs()
	for axis := 0; axis < 3; axis++ {
		if d.Get(axis) == 0 {
			d.Set(axis, 1)
		}
	}
	return d
}

func (b AABB) Contains(p Vec3i) bool {
	lo, hi := b.Min(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// Intersects reports whether the two boxes share at least one cell.
func (b AABB) Intersects(o AABB) bool {
	alo, ahi := b.Min(), b.Max()
	blo, bhi := o.Min(), o.Max()
	return ahi.X >= blo.X && alo.X <= bhi.X &&
		ahi.Y >= blo.Y && alo.Y <= bhi.Y &&
		ahi.Z >= blo.Z && alo.Z <= bhi.Z
}

// Cells calls fn for every covered cell in x, y, z order.
func (b AABB) Cells(fn func(Vec3i)) {
	lo, hi := b.Min(), b.Max()
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				fn(Vec3i{X: x, Y: y, Z: z})
			}
		}
	}
}

func span(c, d int) (lo, hi int) {
	switch {
	case d > 0:
		lo = c - (d-1)/2
		return lo, lo + d - 1
	case d < 0:
		n := -d
		hi = c + (n-1)/2
		return hi - n + 1, hi
	default:
		return c, c
	}
}

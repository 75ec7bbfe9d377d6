package grid

import "github.com/go-gl/mathgl/mgl32"

// DefaultTile is the world-space size of one grid cell.
var DefaultTile = mgl32.Vec3{1, 1, 1}

// ToWorld converts grid coordinates into world space for the given tile size.
func ToWorld(v Vec3i, tile mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(v.X) * tile.X(),
		float32(v.Y) * tile.Y(),
		float32(v.Z) * tile.Z(),
	}
}

// WorldBounds returns the world-space min and max corners of the cells b covers.
func WorldBounds(b AABB, tile mgl32.Vec3) (lo, hi mgl32.Vec3) {
	lo = ToWorld(b.Min(), tile)
	hi = ToWorld(b.Max().Add(Vec3i{X: 1, Y: 1, Z: 1}), tile)
	return lo, hi
}

// Package outline builds the picture-frame wireframe drawn around a
// selection volume: a border of four trapezoids on each of the box's six
// faces.
package outline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/sim/grid"
)

// DefaultMaxMargin caps the border thickness in world units.
const DefaultMaxMargin = 0.9

// QuadsPerPair is the number of quads emitted for two opposite faces.
const QuadsPerPair = 8

// Mesh is a flat buffer ready for the render layer.
type Mesh struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	UVs      []mgl32.Vec2
	Indices  []int32
}

func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.UVs = m.UVs[:0]
	m.Indices = m.Indices[:0]
}

// Margin is the border inset for a box of the given world-space size.
func Margin(size mgl32.Vec3, maxMargin float32) float32 {
	m := maxMargin
	for _, d := range size {
		h := float32(math.Abs(float64(d))) / 2
		if h < m {
			m = h
		}
	}
	return m
}

// Build clears m and rewrites it with the outline of a box with the given
// signed dimensions. Vertices are local to the box's anchor cell.
func Build(m *Mesh, dims grid.Vec3i, tile mgl32.Vec3, maxMargin float32) {
	m.Reset()

	box := grid.NewAABB(grid.Vec3i{}, dims)
	lo, hi := grid.WorldBounds(box, tile)
	center := lo.Add(hi).Mul(0.5)

	size := grid.ToWorld(dims, tile)
	for i := range size {
		size[i] = float32(math.Abs(float64(size[i])))
	}
	ax, ay, az := size.X(), size.Y(), size.Z()
	mg := Margin(size, maxMargin)

	var offset int32

	// Top and bottom.
	y := hi.Y()
	topRight := mgl32.Vec3{hi.X(), y, hi.Z()}
	innerTopRight := mgl32.Vec3{hi.X() - mg, y, hi.Z() - mg}
	offset = m.facePair(offset, center,
		[8]mgl32.Vec3{
			{lo.X(), y, hi.Z()},
			topRight,
			{lo.X() + mg, y, hi.Z() - mg},
			innerTopRight,
			topRight,
			{hi.X(), y, lo.Z()},
			innerTopRight,
			{hi.X() - mg, y, lo.Z() + mg},
		},
		[8]mgl32.Vec2{
			{0, 0}, {ax, 0}, {mg, mg}, {ax - mg, mg},
			{0, 0}, {az, 0}, {mg, mg}, {az - mg, mg},
		},
		mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})

	// Right and left.
	x := hi.X()
	topRight = mgl32.Vec3{x, hi.Y(), hi.Z()}
	innerTopRight = mgl32.Vec3{x, hi.Y() - mg, hi.Z() - mg}
	offset = m.facePair(offset, center,
		[8]mgl32.Vec3{
			{x, hi.Y(), lo.Z()},
			topRight,
			{x, hi.Y() - mg, lo.Z() + mg},
			innerTopRight,
			topRight,
			{x, lo.Y(), hi.Z()},
			innerTopRight,
			{x, lo.Y() + mg, hi.Z() - mg},
		},
		[8]mgl32.Vec2{
			{az, 0}, {0, 0}, {az - mg, mg}, {mg, mg},
			{ay, 0}, {0, 0}, {ay - mg, mg}, {mg, mg},
		},
		mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0})

	// Back and front.
	z := lo.Z()
	topRight = mgl32.Vec3{hi.X(), hi.Y(), z}
	innerTopRight = mgl32.Vec3{hi.X() - mg, hi.Y() - mg, z}
	m.facePair(offset, center,
		[8]mgl32.Vec3{
			{lo.X(), hi.Y(), z},
			topRight,
			{lo.X() + mg, hi.Y() - mg, z},
			innerTopRight,
			topRight,
			{hi.X(), lo.Y(), z},
			innerTopRight,
			{hi.X() - mg, lo.Y() + mg, z},
		},
		[8]mgl32.Vec2{
			{ax, 0}, {0, 0}, {ax - mg, mg}, {mg, mg},
			{ay, 0}, {0, 0}, {ay - mg, mg}, {mg, mg},
		},
		mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1})
}

// facePair emits two parallel faces from one corner pattern. The pattern
// holds two quads (one L of the border); a half turn about turnAxis through
// the center completes the face and a half turn about flipAxis produces the
// opposite face. normal is the outward normal of the pattern's face.
func (m *Mesh) facePair(offset int32, center mgl32.Vec3, pattern [8]mgl32.Vec3, uv [8]mgl32.Vec2, turnAxis, flipAxis, normal mgl32.Vec3) int32 {
	turn := mgl32.QuatRotate(math.Pi, turnAxis)
	flip := mgl32.QuatRotate(math.Pi, flipAxis)

	face := make([]mgl32.Vec3, 0, 16)
	faceUV := make([]mgl32.Vec2, 0, 16)
	face = append(face, pattern[:]...)
	faceUV = append(faceUV, uv[:]...)
	for i := range pattern {
		face = append(face, rotateAbout(turn, pattern[i], center))
		faceUV = append(faceUV, uv[i])
	}

	for i := range face {
		m.Vertices = append(m.Vertices, face[i])
		m.Normals = append(m.Normals, normal)
		m.UVs = append(m.UVs, faceUV[i])
	}
	opposite := normal.Mul(-1)
	for i := range face {
		m.Vertices = append(m.Vertices, rotateAbout(flip, face[i], center))
		m.Normals = append(m.Normals, opposite)
		m.UVs = append(m.UVs, faceUV[i])
	}

	for q := int32(0); q < QuadsPerPair; q++ {
		k := offset + q*4
		m.Indices = append(m.Indices, k+2, k+1, k, k+2, k+3, k+1)
	}
	return offset + int32(2*len(face))
}

func rotateAbout(q mgl32.Quat, p, center mgl32.Vec3) mgl32.Vec3 {
	return q.Rotate(p.Sub(center)).Add(center)
}

package grid

// Vec3i is a position or extent in grid space (one unit per tile).
type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec3i) Mul(k int) Vec3i   { return Vec3i{X: v.X * k, Y: v.Y * k, Z: v.Z * k} }

func (v Vec3i) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vec3i) Abs() Vec3i { return Vec3i{X: absInt(v.X), Y: absInt(v.Y), Z: absInt(v.Z)} }

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func FromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }

// Get returns the component for axis 0 (X), 1 (Y) or 2 (Z).
func (v Vec3i) Get(axis int) int {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (v *Vec3i) Set(axis, n int) {
	switch axis {
	case 0:
		v.X = n
	case 1:
		v.Y = n
	default:
		v.Z = n
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

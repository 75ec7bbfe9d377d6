package bounds

import (
	"testing"

	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/sim/grid"
)

func basisFacing(forward grid.Vec3i) axis.Basis {
	f := axis.PosZ
	switch forward {
	case grid.Vec3i{X: 1}:
		f = axis.PosX
	case grid.Vec3i{X: -1}:
		f = axis.NegX
	case grid.Vec3i{Z: -1}:
		f = axis.NegZ
	}
	return axis.Resolve(f, axis.RightOf(f), axis.DefaultBias)
}

func TestMovementFollowsFacing(t *testing.T) {
	cases := []struct {
		facing grid.Vec3i
		dir    Direction
		want   grid.Vec3i
	}{
		{grid.Vec3i{Z: 1}, Forward, grid.Vec3i{Z: 1}},
		{grid.Vec3i{Z: 1}, Right, grid.Vec3i{X: 1}},
		{grid.Vec3i{Z: 1}, Left, grid.Vec3i{X: -1}},
		{grid.Vec3i{Z: -1}, Forward, grid.Vec3i{Z: -1}},
		{grid.Vec3i{Z: -1}, Right, grid.Vec3i{X: -1}},
		{grid.Vec3i{X: -1}, Right, grid.Vec3i{Z: 1}},
		{grid.Vec3i{X: 1}, Back, grid.Vec3i{X: -1}},
		{grid.Vec3i{X: 1}, Up, grid.Vec3i{Y: 1}},
		{grid.Vec3i{Z: -1}, Down, grid.Vec3i{Y: -1}},
	}
	for _, c := range cases {
		if got := Movement(c.dir, basisFacing(c.facing)); got != c.want {
			t.Fatalf("facing %+v %s: got %+v want %+v", c.facing, c.dir, got, c.want)
		}
	}
}

func TestExpansionUsesAbsoluteAxes(t *testing.T) {
	b := basisFacing(grid.Vec3i{Z: -1})
	if got := Expansion(Right, b); got != (grid.Vec3i{X: 1}) {
		t.Fatalf("expand right facing -Z: %+v", got)
	}
	if got := Expansion(Back, b); got != (grid.Vec3i{Z: -1}) {
		t.Fatalf("expand back facing -Z: %+v", got)
	}
	if got := Expansion(Left, basisFacing(grid.Vec3i{X: 1})); got != (grid.Vec3i{Z: -1}) {
		t.Fatalf("expand left facing +X: %+v", got)
	}
}

func TestLastDirectionWins(t *testing.T) {
	fired := map[Direction]bool{Forward: true, Left: true}
	got, ok := Last(func(d Direction) bool { return fired[d] })
	if !ok || got != Left {
		t.Fatalf("got %s ok=%v want left", got, ok)
	}
	if _, ok := Last(func(Direction) bool { return false }); ok {
		t.Fatalf("no input should report false")
	}
}

func TestResolveDimensionsZeroCrossing(t *testing.T) {
	if got := ResolveDimensions(grid.Vec3i{X: 0, Y: 1, Z: 1}, grid.Vec3i{X: 1}); got.X != 2 {
		t.Fatalf("from zero: %+v", got)
	}
	if got := ResolveDimensions(grid.Vec3i{X: 1, Y: 1, Z: 1}, grid.Vec3i{X: -1}); got.X != -2 {
		t.Fatalf("crossing zero: %+v", got)
	}
	if got := ResolveDimensions(grid.Vec3i{X: 3, Y: 0, Z: 1}, grid.Vec3i{X: 1}); got != (grid.Vec3i{X: 4, Y: 0, Z: 1}) {
		t.Fatalf("untouched zero axis must stay: %+v", got)
	}
}

func TestExpandRightFacingPosZKeepsOrigin(t *testing.T) {
	b := basisFacing(grid.Vec3i{Z: 1})
	box := grid.NewAABB(grid.Vec3i{}, grid.Vec3i{X: 1, Y: 1, Z: 1})
	shift := ResolveExpansionAnchor(Expansion(Right, b), b, &box)
	if box.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 1}) {
		t.Fatalf("dims=%+v", box.Dimensions)
	}
	if !shift.IsZero() {
		t.Fatalf("shift=%+v want zero", shift)
	}
}

func TestAnchorCornerStaysFixed(t *testing.T) {
	cases := []struct {
		name   string
		facing grid.Vec3i
		steps  []Direction
		corner func(grid.AABB) grid.Vec3i
	}{
		{"right +X keeps min", grid.Vec3i{Z: 1}, []Direction{Right, Right, Forward, Up, Right, Left}, grid.AABB.Min},
		{"right -X keeps max x", grid.Vec3i{Z: -1}, []Direction{Right, Right, Right, Left}, func(b grid.AABB) grid.Vec3i {
			return grid.Vec3i{X: b.Max().X, Y: b.Min().Y, Z: b.Max().Z}
		}},
	}
	for _, c := range cases {
		b := basisFacing(c.facing)
		box := grid.NewAABB(grid.Vec3i{X: 4, Y: 2, Z: -3}, grid.Vec3i{X: 1, Y: 1, Z: 1})
		start := c.corner(box)
		for i, d := range c.steps {
			shift := ResolveExpansionAnchor(Expansion(d, b), b, &box)
			box.Center = box.Center.Add(shift)
			if got := c.corner(box); got != start {
				t.Fatalf("%s: step %d (%s) moved anchor %+v -> %+v (box %+v)", c.name, i, d, start, got, box)
			}
		}
	}
}

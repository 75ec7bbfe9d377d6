package actors

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/scene"
	"voxeledit.ai/internal/sim/grid"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(Prototype{
		ID:     3,
		Name:   "bench",
		Bounds: grid.Vec3i{X: 2, Y: 1, Z: 3},
		Root: Part{Name: "root", Material: "wood", Children: []Part{
			{Name: "leg", Material: "wood", Offset: mgl32.Vec3{0.5, 0, 0}},
			{Name: "leg", Material: "wood", Offset: mgl32.Vec3{-0.5, 0, 0}},
		}},
	})
	return r
}

func TestCloneAndFree(t *testing.T) {
	s := scene.NewHeadless()
	parent := s.AddNode("outline")
	ctx := CloneContext{Registry: testRegistry(), Scene: s}

	inst, ok := ctx.Clone(3, parent)
	if !ok {
		t.Fatalf("clone failed")
	}
	if len(inst.Nodes()) != 3 || s.Len() != 4 {
		t.Fatalf("nodes=%d scene=%d", len(inst.Nodes()), s.Len())
	}
	root, _ := s.Node(inst.Node)
	if root.Parent != parent || !root.Visible {
		t.Fatalf("root=%+v", root)
	}

	inst.Free(s)
	if s.Len() != 1 {
		t.Fatalf("free left %d nodes", s.Len())
	}
	if _, ok := ctx.Clone(99, parent); ok {
		t.Fatalf("unknown prototype cloned")
	}
	if _, ok := (CloneContext{}).Clone(3, parent); ok {
		t.Fatalf("clone without registry")
	}
}

func TestCloneDoesNotAliasPrototype(t *testing.T) {
	r := testRegistry()
	inst, _ := CloneContext{Registry: r, Scene: scene.NewHeadless()}.Clone(3, 0)
	inst.Root.Children[0].Name = "changed"
	p, _ := r.Lookup(3)
	if p.Root.Children[0].Name != "leg" {
		t.Fatalf("prototype mutated through clone")
	}
}

func TestScaledAndRotatedBounds(t *testing.T) {
	up := mgl32.Vec3{0, 1, 0}
	b := grid.Vec3i{X: 2, Y: 1, Z: 3}
	if got := ScaledAndRotatedBounds(b, mgl32.QuatIdent()); got != b {
		t.Fatalf("identity: %+v", got)
	}
	if got := ScaledAndRotatedBounds(b, mgl32.QuatRotate(-math.Pi/2, up)); got != (grid.Vec3i{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("quarter turn: %+v", got)
	}
	if got := ScaledAndRotatedBounds(b, mgl32.QuatRotate(math.Pi, up)); got != b {
		t.Fatalf("half turn: %+v", got)
	}
}

func TestStoreSelectRange(t *testing.T) {
	s := NewStore()
	s.Put(Placed{ID: "b", Position: grid.Vec3i{X: 0}, Bounds: grid.Vec3i{X: 1, Y: 1, Z: 1}})
	s.Put(Placed{ID: "a", Position: grid.Vec3i{X: 1}, Bounds: grid.Vec3i{X: 2, Y: 1, Z: 1}})
	s.Put(Placed{ID: "c", Position: grid.Vec3i{X: 10}, Bounds: grid.Vec3i{X: 1, Y: 1, Z: 1}})

	got := s.SelectRange(grid.NewAABB(grid.Vec3i{}, grid.Vec3i{X: 2, Y: 1, Z: 1}))
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("range=%v", got)
	}
	if !s.Remove("a") || s.Remove("a") {
		t.Fatalf("remove twice")
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d", s.Len())
	}
}

func TestEncodeDecode(t *testing.T) {
	in := Snapshot{
		ID:        NewID(),
		Prototype: 3,
		Position:  [3]int{1, 0, -2},
		Rotation:  QuatToArray(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})),
		Bounds:    [3]int{3, 1, 2},
		Root:      testRegistry().protos[3].Root,
	}
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Position != in.Position || len(out.Root.Children) != 2 {
		t.Fatalf("out=%+v", out)
	}
	p := out.Placed()
	if p.Box().Size() != (grid.Vec3i{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("placed box=%+v", p.Box())
	}
	if _, err := Decode([]byte("not zstd")); err == nil {
		t.Fatalf("expected decode error")
	}
}

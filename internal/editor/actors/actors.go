// Package actors holds the actor palette, preview clones and the index
// of placed actors the actor tool inserts into and removes from.
package actors

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"voxeledit.ai/internal/editor/scene"
	"voxeledit.ai/internal/sim/grid"
)

// ID identifies a placed actor across clients.
type ID string

func NewID() ID { return ID(uuid.New().String()) }

// Part is one node of an actor subtree.
type Part struct {
	Name     string     `json:"name"`
	Material string     `json:"material"`
	Offset   mgl32.Vec3 `json:"offset"`
	Children []Part     `json:"children,omitempty"`
}

// Clone deep-copies the subtree.
func (p Part) Clone() Part {
	out := p
	if len(p.Children) > 0 {
		out.Children = make([]Part, len(p.Children))
		for i, c := range p.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Prototype is a palette entry. Bounds are the unrotated grid dimensions.
type Prototype struct {
	ID     int64
	Name   string
	Bounds grid.Vec3i
	Root   Part
}

// Registry maps palette ids to prototypes.
type Registry struct {
	protos map[int64]*Prototype
}

func NewRegistry() *Registry {
	return &Registry{protos: map[int64]*Prototype{}}
}

func (r *Registry) Register(p Prototype) {
	cp := p
	cp.Root = p.Root.Clone()
	r.protos[p.ID] = &cp
}

func (r *Registry) Lookup(id int64) (*Prototype, bool) {
	p, ok := r.protos[id]
	return p, ok
}

func (r *Registry) IDs() []int64 {
	ids := make([]int64, 0, len(r.protos))
	for id := range r.protos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ScaledAndRotatedBounds returns the grid dimensions a prototype occupies
// after rot is applied.
func ScaledAndRotatedBounds(bounds grid.Vec3i, rot mgl32.Quat) grid.Vec3i {
	return grid.TurnDimensions(bounds, grid.QuarterTurns(rot))
}

// Instance is a clone of a prototype living in a client's scene.
type Instance struct {
	Prototype int64
	Root      Part
	Node      scene.NodeID
	nodes     []scene.NodeID
}

// CloneContext carries what a clone needs. It is built by the caller
// for the lifetime of one editor session.
type CloneContext struct {
	Registry *Registry
	Scene    scene.Scene
}

// Clone copies prototype id into the scene under parent. It returns false
// when the prototype is unknown or there is no scene to clone into.
func (c CloneContext) Clone(id int64, parent scene.NodeID) (*Instance, bool) {
	if c.Registry == nil || c.Scene == nil {
		return nil, false
	}
	p, ok := c.Registry.Lookup(id)
	if !ok {
		return nil, false
	}
	inst := &Instance{Prototype: id, Root: p.Root.Clone()}
	inst.Node = inst.spawn(c.Scene, inst.Root, parent)
	return inst, true
}

func (inst *Instance) spawn(s scene.Scene, p Part, parent scene.NodeID) scene.NodeID {
	id := s.AddNode(p.Material)
	inst.nodes = append(inst.nodes, id)
	s.SetParent(id, parent)
	s.SetTransform(id, p.Offset, mgl32.QuatIdent())
	s.SetVisible(id, true)
	for _, c := range p.Children {
		inst.spawn(s, c, id)
	}
	return id
}

// Nodes lists every scene node the clone created, root first.
func (inst *Instance) Nodes() []scene.NodeID { return append([]scene.NodeID(nil), inst.nodes...) }

// Free releases the clone's nodes.
func (inst *Instance) Free(s scene.Scene) {
	if inst == nil || s == nil || inst.Node == 0 {
		return
	}
	s.Free(inst.Node)
	inst.Node = 0
	inst.nodes = nil
}

// Place centers the clone inside a box of dims anchored at the parent
// node's origin and applies rot to its root.
func (inst *Instance) Place(s scene.Scene, dims grid.Vec3i, tile mgl32.Vec3, rot mgl32.Quat) {
	if inst == nil || s == nil || inst.Node == 0 {
		return
	}
	lo, hi := grid.WorldBounds(grid.NewAABB(grid.Vec3i{}, dims), tile)
	s.SetTransform(inst.Node, lo.Add(hi).Mul(0.5), rot)
}

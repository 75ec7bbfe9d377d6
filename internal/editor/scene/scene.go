// Package scene is the boundary to the render layer: the editor asks for
// nodes, toggles their visibility, moves them and hands them outline
// meshes. Headless records those calls for tests and bots.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/feature/outline"
)

// NodeID identifies a drawable node in the render layer. Zero is no node.
type NodeID uint64

type Scene interface {
	AddNode(material string) NodeID
	Free(id NodeID)
	SetVisible(id NodeID, visible bool)
	SetTransform(id NodeID, position mgl32.Vec3, rotation mgl32.Quat)
	SetMesh(id NodeID, mesh *outline.Mesh)
	SetParent(id, parent NodeID)
}

type Node struct {
	ID       NodeID
	Material string
	Visible  bool
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Parent   NodeID
	Vertices int
	Indices  int
	Meshes   int
}

// Headless keeps node state in memory.
type Headless struct {
	next  NodeID
	nodes map[NodeID]*Node
	freed []NodeID
}

func NewHeadless() *Headless {
	return &Headless{nodes: map[NodeID]*Node{}}
}

func (h *Headless) AddNode(material string) NodeID {
	h.next++
	h.nodes[h.next] = &Node{ID: h.next, Material: material, Rotation: mgl32.QuatIdent()}
	return h.next
}

func (h *Headless) Free(id NodeID) {
	if _, ok := h.nodes[id]; !ok {
		return
	}
	delete(h.nodes, id)
	h.freed = append(h.freed, id)
	for _, n := range h.nodes {
		if n.Parent == id {
			h.Free(n.ID)
		}
	}
}

func (h *Headless) SetVisible(id NodeID, visible bool) {
	if n := h.nodes[id]; n != nil {
		n.Visible = visible
	}
}

func (h *Headless) SetTransform(id NodeID, position mgl32.Vec3, rotation mgl32.Quat) {
	if n := h.nodes[id]; n != nil {
		n.Position = position
		n.Rotation = rotation
	}
}

func (h *Headless) SetMesh(id NodeID, mesh *outline.Mesh) {
	if n := h.nodes[id]; n != nil && mesh != nil {
		n.Vertices = len(mesh.Vertices)
		n.Indices = len(mesh.Indices)
		n.Meshes++
	}
}

func (h *Headless) SetParent(id, parent NodeID) {
	if n := h.nodes[id]; n != nil {
		n.Parent = parent
	}
}

// Node returns a copy of the node state.
func (h *Headless) Node(id NodeID) (Node, bool) {
	n := h.nodes[id]
	if n == nil {
		return Node{}, false
	}
	return *n, true
}

func (h *Headless) Freed() []NodeID { return append([]NodeID(nil), h.freed...) }

func (h *Headless) Len() int { return len(h.nodes) }

// Package editor runs the selection volumes of every client in a session:
// it snaps camera orientation onto the grid, turns directional input into
// bounds deltas, coalesces those into change requests, reconciles the
// authoritative confirmations and drives the terrain and actor tools.
//
// An Engine is not safe for concurrent use. Call Tick, Receive and the
// selection methods from one goroutine.
package editor

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/deferred"
	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/editor/feature/outline"
	"voxeledit.ai/internal/editor/scene"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
)

// OutlineMaterial is the material requested for every volume node.
const OutlineMaterial = "select_box"

type Kind int

const (
	KindTerrain Kind = iota
	KindActor
)

var kinds = [...]Kind{KindTerrain, KindActor}

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindActor:
		return "actor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type volumeKey struct {
	client protocol.ClientID
	kind   Kind
}

// Volume is one client's selection box for one tool.
type Volume struct {
	Client     protocol.ClientID
	Kind       Kind
	Origin     grid.Vec3i
	Dimensions grid.Vec3i
	Active     bool
	Basis      axis.Basis
	Node       scene.NodeID

	// Actor volumes only.
	Selection int64
	Rotation  mgl32.Quat
	Preview   *actors.Instance

	camera     Camera
	mesh       outline.Mesh
	dirty      bool // dimensions changed since the last mesh pass
	moved      bool // origin changed since the last mesh pass
	toolOrigin grid.Vec3i
}

func (v *Volume) Box() grid.AABB { return grid.NewAABB(v.Origin, v.Dimensions) }

// Mesh is the outline built by the last mesh pass.
func (v *Volume) Mesh() *outline.Mesh { return &v.mesh }

// PendingCorrection is the cumulative target a client expects the
// relay to confirm. Dimensions belong to the Kind volume.
type PendingCorrection struct {
	Origin     grid.Vec3i
	Dimensions grid.Vec3i
	Kind       Kind

	// liveDims is set once the live volume's dimensions changed outside
	// the coalescer after a request went out. Confirmations of those
	// older requests then carry dimensions the volume has moved past.
	liveDims bool
}

type Options struct {
	RepeatInterval time.Duration
	SnapBias       float32
	MaxMargin      float32
	Tile           mgl32.Vec3
	Logger         *log.Logger
}

func DefaultOptions() Options {
	return Options{
		RepeatInterval: 250 * time.Millisecond,
		SnapBias:       axis.DefaultBias,
		MaxMargin:      outline.DefaultMaxMargin,
		Tile:           grid.DefaultTile,
	}
}

// Deps are the collaborators an engine reads from. Scene is required;
// the rest default to empty local state.
type Deps struct {
	Scene     scene.Scene
	Registry  *actors.Registry
	Map       *terrain.Map
	Validator terrain.Validator
	Actors    *actors.Store
}

type Engine struct {
	local  protocol.ClientID
	opts   Options
	logger *log.Logger

	scene     scene.Scene
	clone     actors.CloneContext
	tiles     *terrain.Map
	validator terrain.Validator
	placed    *actors.Store

	volumes map[volumeKey]*Volume
	clients []protocol.ClientID
	pending map[protocol.ClientID]*PendingCorrection
	tile    terrain.TileData

	queue  deferred.Queue[*Engine]
	outbox []any
}

// New builds an engine for the client running it. Other clients' volumes
// are added with AddClient as they appear.
func New(local protocol.ClientID, deps Deps, opts Options) *Engine {
	def := DefaultOptions()
	if opts.RepeatInterval <= 0 {
		opts.RepeatInterval = def.RepeatInterval
	}
	if opts.SnapBias == 0 {
		opts.SnapBias = def.SnapBias
	}
	if opts.MaxMargin <= 0 {
		opts.MaxMargin = def.MaxMargin
	}
	if opts.Tile == (mgl32.Vec3{}) {
		opts.Tile = def.Tile
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.Registry == nil {
		deps.Registry = actors.NewRegistry()
	}
	if deps.Map == nil {
		deps.Map = terrain.NewMap(terrain.Bounds{})
	}
	if deps.Validator == nil {
		deps.Validator = deps.Map
	}
	if deps.Actors == nil {
		deps.Actors = actors.NewStore()
	}
	return &Engine{
		local:     local,
		opts:      opts,
		logger:    logger,
		scene:     deps.Scene,
		clone:     actors.CloneContext{Registry: deps.Registry, Scene: deps.Scene},
		tiles:     deps.Map,
		validator: deps.Validator,
		placed:    deps.Actors,
		volumes:   map[volumeKey]*Volume{},
		pending:   map[protocol.ClientID]*PendingCorrection{},
	}
}

func (e *Engine) LocalClient() protocol.ClientID { return e.local }

func (e *Engine) Map() *terrain.Map { return e.tiles }

func (e *Engine) Actors() *actors.Store { return e.placed }

// AddClient creates the terrain and actor volumes of a client. cam may be
// nil for remote clients.
func (e *Engine) AddClient(id protocol.ClientID, cam Camera) error {
	if e.HasClient(id) {
		return fmt.Errorf("editor: client %d already added", id)
	}
	for _, k := range kinds {
		node := e.scene.AddNode(OutlineMaterial)
		e.scene.SetVisible(node, false)
		e.volumes[volumeKey{id, k}] = &Volume{
			Client:     id,
			Kind:       k,
			Dimensions: grid.Vec3i{X: 1, Y: 1, Z: 1},
			Basis:      axis.DefaultBasis(),
			Node:       node,
			Rotation:   mgl32.QuatIdent(),
			camera:     cam,
			dirty:      true,
			moved:      true,
		}
	}
	e.clients = append(e.clients, id)
	return nil
}

func (e *Engine) HasClient(id protocol.ClientID) bool {
	_, ok := e.volumes[volumeKey{id, KindTerrain}]
	return ok
}

// RemoveClient frees a client's nodes and forgets its volumes.
func (e *Engine) RemoveClient(id protocol.ClientID) {
	if !e.HasClient(id) {
		return
	}
	for _, k := range kinds {
		key := volumeKey{id, k}
		v := e.volumes[key]
		v.Preview.Free(e.scene)
		e.scene.Free(v.Node)
		delete(e.volumes, key)
	}
	delete(e.pending, id)
	for i, c := range e.clients {
		if c == id {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			break
		}
	}
}

// FreeAll removes every client.
func (e *Engine) FreeAll() {
	for len(e.clients) > 0 {
		e.RemoveClient(e.clients[0])
	}
}

func (e *Engine) Volume(id protocol.ClientID, k Kind) (*Volume, bool) {
	v, ok := e.volumes[volumeKey{id, k}]
	return v, ok
}

// ActiveVolume returns the client's volume holding the active mark.
func (e *Engine) ActiveVolume(id protocol.ClientID) (*Volume, bool) {
	for _, k := range kinds {
		if v, ok := e.volumes[volumeKey{id, k}]; ok && v.Active {
			return v, true
		}
	}
	return nil, false
}

// operative is the volume movement applies to: the active one, or the
// terrain volume before the first activation.
func (e *Engine) operative(id protocol.ClientID) *Volume {
	if v, ok := e.ActiveVolume(id); ok {
		return v
	}
	return e.volumes[volumeKey{id, KindTerrain}]
}

func (e *Engine) Pending(id protocol.ClientID) (PendingCorrection, bool) {
	p := e.pending[id]
	if p == nil {
		return PendingCorrection{}, false
	}
	return *p, true
}

// SelectTile sets the palette tile used by terrain insertion.
func (e *Engine) SelectTile(t terrain.TileData) { e.tile = t }

// Outbound drains the messages produced since the last call, in order.
func (e *Engine) Outbound() []any {
	out := e.outbox
	e.outbox = nil
	return out
}

func (e *Engine) emit(msg any) { e.outbox = append(e.outbox, msg) }

func (e *Engine) setOrigin(v *Volume, o grid.Vec3i) {
	if v.Origin == o {
		return
	}
	v.Origin = o
	v.moved = true
}

func (e *Engine) setDimensions(v *Volume, d grid.Vec3i) {
	if v.Dimensions == d {
		return
	}
	v.Dimensions = d
	v.dirty = true
}

// setClientOrigin keeps every volume of a client on the same anchor.
func (e *Engine) setClientOrigin(id protocol.ClientID, o grid.Vec3i) {
	for _, k := range kinds {
		if v, ok := e.volumes[volumeKey{id, k}]; ok {
			e.setOrigin(v, o)
		}
	}
}

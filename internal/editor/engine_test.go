package editor

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/scene"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/grid"
	"voxeledit.ai/internal/sim/input"
)

const frame = 16 * time.Millisecond

type harness struct {
	t     *testing.T
	e     *Engine
	scene *scene.Headless
	in    *input.State
	cam   *LookCamera
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := actors.NewRegistry()
	reg.Register(actors.Prototype{
		ID:     3,
		Name:   "bench",
		Bounds: grid.Vec3i{X: 2, Y: 1, Z: 3},
		Root:   actors.Part{Name: "bench", Material: "wood", Children: []actors.Part{{Name: "leg", Material: "wood"}}},
	})
	reg.Register(actors.Prototype{
		ID:     4,
		Name:   "lamp",
		Bounds: grid.Vec3i{X: 1, Y: 2, Z: 1},
		Root:   actors.Part{Name: "lamp", Material: "metal"},
	})
	s := scene.NewHeadless()
	e := New(1, Deps{Scene: s, Registry: reg}, DefaultOptions())
	cam := NewLookCamera(mgl32.Vec3{0, 0, 1})
	if err := e.AddClient(1, cam); err != nil {
		t.Fatalf("add client: %v", err)
	}
	return &harness{t: t, e: e, scene: s, in: input.NewState(), cam: cam}
}

// tap presses action for exactly one tick.
func (h *harness) tap(actions ...string) []any {
	for _, a := range actions {
		h.in.Press(a)
	}
	h.in.Advance(frame)
	h.e.Tick(h.in)
	for _, a := range actions {
		h.in.Release(a)
	}
	return h.e.Outbound()
}

func (h *harness) volume(id protocol.ClientID, k Kind) *Volume {
	h.t.Helper()
	v, ok := h.e.Volume(id, k)
	if !ok {
		h.t.Fatalf("no %s volume for client %d", k, id)
	}
	return v
}

func boundsMsgs(out []any) []protocol.UpdateSelectionBoundsMsg {
	var msgs []protocol.UpdateSelectionBoundsMsg
	for _, m := range out {
		if b, ok := m.(protocol.UpdateSelectionBoundsMsg); ok {
			msgs = append(msgs, b)
		}
	}
	return msgs
}

func TestMoveForwardSendsTarget(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	out := h.tap(input.MoveForward)
	if len(out) != 1 {
		t.Fatalf("outbound=%v", out)
	}
	want := protocol.UpdateSelectionBoundsMsg{
		Type:            protocol.TypeUpdateSelectionBounds,
		ProtocolVersion: protocol.Version,
		ClientID:        1,
		Origin:          [3]int{0, 0, 1},
		Dimensions:      [3]int{1, 1, 1},
	}
	if out[0] != want {
		t.Fatalf("got %+v want %+v", out[0], want)
	}
	p, ok := h.e.Pending(1)
	if !ok || p.Origin != (grid.Vec3i{Z: 1}) {
		t.Fatalf("pending=%+v ok=%v", p, ok)
	}
	if h.volume(1, KindActor).Origin != (grid.Vec3i{Z: 1}) {
		t.Fatalf("sibling volume did not follow")
	}
}

func TestMovementCoalescesWhileAwaiting(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	first := boundsMsgs(h.tap(input.MoveForward))
	second := boundsMsgs(h.tap(input.MoveForward))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("first=%v second=%v", first, second)
	}
	if first[0].Origin != [3]int{0, 0, 1} || second[0].Origin != [3]int{0, 0, 2} {
		t.Fatalf("targets not cumulative: %v then %v", first[0].Origin, second[0].Origin)
	}
	p, _ := h.e.Pending(1)
	if p.Origin != (grid.Vec3i{Z: 2}) {
		t.Fatalf("pending=%+v", p)
	}
	if got := h.volume(1, KindTerrain).Origin; got != (grid.Vec3i{Z: 1}) {
		t.Fatalf("live volume moved while awaiting: %+v", got)
	}
}

func TestSimultaneousDirectionsLastWins(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	msgs := boundsMsgs(h.tap(input.MoveForward, input.MoveRight))
	if len(msgs) != 1 || msgs[0].Origin != [3]int{1, 0, 0} {
		t.Fatalf("msgs=%+v", msgs)
	}
}

func TestCameraTurnChangesForward(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.cam.Look(mgl32.Vec3{1, -0.3, 0.2})
	h.e.Outbound()

	msgs := boundsMsgs(h.tap(input.MoveForward))
	if len(msgs) != 1 || msgs[0].Origin != [3]int{1, 0, 0} {
		t.Fatalf("msgs=%+v", msgs)
	}
	b := h.volume(1, KindActor).Basis
	if b.Forward != (mgl32.Vec3{1, 0, 0}) || b.Right != (mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("basis=%+v", b)
	}
}

func TestExpandRightKeepsOrigin(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	msgs := boundsMsgs(h.tap(input.ExpandRight))
	if len(msgs) != 1 {
		t.Fatalf("msgs=%+v", msgs)
	}
	v := h.volume(1, KindTerrain)
	if v.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 1}) || v.Origin != (grid.Vec3i{}) {
		t.Fatalf("volume origin=%+v dims=%+v", v.Origin, v.Dimensions)
	}
	if msgs[0].Dimensions != [3]int{2, 1, 1} || msgs[0].Origin != [3]int{0, 0, 0} {
		t.Fatalf("msg=%+v", msgs[0])
	}
}

func TestExpansionRequiresActiveTerrain(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.Outbound()
	if out := h.tap(input.ExpandRight); len(out) != 0 {
		t.Fatalf("actor volume expanded: %v", out)
	}
}

func TestExpansionAnchorCornerStaysFixed(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.cam.Look(mgl32.Vec3{0, 0, -1}) // right is -X
	h.e.Outbound()

	v := h.volume(1, KindTerrain)
	h.e.Tick(nil)
	anchor := v.Box().Max().X
	for i := 0; i < 4; i++ {
		msgs := boundsMsgs(h.tap(input.ExpandRight))
		if len(msgs) != 1 {
			t.Fatalf("step %d: msgs=%v", i, msgs)
		}
		h.e.Receive(&protocol.SelectionBoundsConfirmedMsg{
			Type: protocol.TypeSelectionBoundsConfirmed, ClientID: 1, Origin: msgs[0].Origin, Dimensions: msgs[0].Dimensions,
		})
		h.e.Tick(nil)
		if got := v.Box().Max().X; got != anchor {
			t.Fatalf("step %d: anchor moved %d -> %d (box %+v)", i, anchor, got, v.Box())
		}
	}
	if v.Box().Size().X != 5 {
		t.Fatalf("size=%+v", v.Box().Size())
	}
}

func TestConfirmationUpdatesActiveDimensionsOnly(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.tap(input.MoveUp)

	h.e.Receive(&protocol.SelectionBoundsConfirmedMsg{
		Type: protocol.TypeSelectionBoundsConfirmed, ClientID: 1, Origin: [3]int{5, 0, 0}, Dimensions: [3]int{3, 1, 1},
	})
	h.e.Tick(nil)

	terrain, actor := h.volume(1, KindTerrain), h.volume(1, KindActor)
	if terrain.Origin != (grid.Vec3i{X: 5}) || terrain.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 1}) {
		t.Fatalf("active volume: origin=%+v dims=%+v", terrain.Origin, terrain.Dimensions)
	}
	if actor.Origin != (grid.Vec3i{X: 5}) || actor.Dimensions != (grid.Vec3i{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("inactive volume: origin=%+v dims=%+v", actor.Origin, actor.Dimensions)
	}
	if _, ok := h.e.Pending(1); ok {
		t.Fatalf("pending correction survived confirmation")
	}

	// Unknown clients are ignored.
	h.e.Receive(&protocol.SelectionBoundsConfirmedMsg{ClientID: 99, Origin: [3]int{1, 1, 1}, Dimensions: [3]int{1, 1, 1}})
	h.e.Tick(nil)
	if terrain.Origin != (grid.Vec3i{X: 5}) {
		t.Fatalf("foreign confirmation leaked")
	}
}

func TestActivationIsExclusive(t *testing.T) {
	e := New(1, Deps{Scene: scene.NewHeadless()}, DefaultOptions())
	if e.Activate(KindTerrain) || len(e.Outbound()) != 0 {
		t.Fatalf("activation before session ready")
	}

	h := newHarness(t)
	if !h.e.Activate(KindActor) {
		t.Fatalf("activate actor")
	}
	out := h.e.Outbound()
	if len(out) != 1 || out[0].(protocol.ActivateToolBoxMsg).Type != protocol.TypeActivateActorToolBox {
		t.Fatalf("out=%v", out)
	}
	terrain, actor := h.volume(1, KindTerrain), h.volume(1, KindActor)
	if !actor.Active || terrain.Active {
		t.Fatalf("actor=%v terrain=%v", actor.Active, terrain.Active)
	}

	h.e.Activate(KindTerrain)
	if len(h.e.Outbound()) != 1 {
		t.Fatalf("expected one notice")
	}
	tn, _ := h.scene.Node(terrain.Node)
	an, _ := h.scene.Node(actor.Node)
	if !terrain.Active || actor.Active || !tn.Visible || an.Visible {
		t.Fatalf("terrain=%v/%v actor=%v/%v", terrain.Active, tn.Visible, actor.Active, an.Visible)
	}
}

func TestRotateRightSwapsAxes(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.e.Tick(nil)
	out := h.e.Outbound()
	if len(out) != 2 {
		t.Fatalf("out=%v", out)
	}
	if sel, ok := out[1].(protocol.ActorToolSelectionMsg); !ok || sel.ActorID != 3 {
		t.Fatalf("selection msg=%+v", out[1])
	}
	v := h.volume(1, KindActor)
	if v.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 3}) || v.Preview == nil {
		t.Fatalf("dims=%+v preview=%v", v.Dimensions, v.Preview)
	}

	out = h.tap(input.RotateRight)
	if len(out) != 1 {
		t.Fatalf("out=%v", out)
	}
	rot, ok := out[0].(protocol.ActorToolRotationMsg)
	if !ok || rot.Rotation != actors.QuatToArray(QuarterTurn(-1)) {
		t.Fatalf("rotation msg=%+v", out[0])
	}
	if v.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("dims=%+v", v.Dimensions)
	}
	if grid.QuarterTurns(v.Rotation) != 3 {
		t.Fatalf("rotation=%v", v.Rotation)
	}
	if _, ok := h.e.Pending(1); ok {
		t.Fatalf("rotation went through the coalescer")
	}
	root, _ := h.scene.Node(v.Preview.Node)
	if root.Rotation != v.Rotation {
		t.Fatalf("preview not rotated: %v", root.Rotation)
	}
}

func TestSelectActorReplacesPreview(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.tap(input.RotateLeft)
	v := h.volume(1, KindActor)
	old := v.Preview.Node

	h.e.SelectActor(4)
	h.e.Tick(nil)
	if _, ok := h.scene.Node(old); ok {
		t.Fatalf("old preview still in scene")
	}
	if v.Preview == nil || v.Preview.Prototype != 4 || v.Selection != 4 {
		t.Fatalf("preview=%+v", v.Preview)
	}
	// A quarter turn keeps the lamp upright and swaps X and Z.
	if v.Dimensions != (grid.Vec3i{X: 1, Y: 2, Z: 1}) {
		t.Fatalf("dims=%+v", v.Dimensions)
	}

	h.e.Outbound()
	h.e.SelectActor(42)
	h.e.Tick(nil)
	if v.Preview != nil || len(h.e.Outbound()) != 0 {
		t.Fatalf("unknown prototype should clear the preview silently")
	}
}

func TestRemoteEchoesApplyWithoutRebroadcast(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	if err := h.e.AddClient(2, nil); err != nil {
		t.Fatalf("add remote: %v", err)
	}
	if err := h.e.AddClient(2, nil); err == nil {
		t.Fatalf("duplicate client accepted")
	}
	h.e.Outbound()

	h.e.Receive(&protocol.ActivateToolBoxMsg{Type: protocol.TypeActivateActorToolBox, ClientID: 2})
	h.e.Receive(&protocol.ActorToolSelectionMsg{Type: protocol.TypeActorToolSelection, ClientID: 2, ActorID: 3})
	h.e.Receive(&protocol.ActorToolRotationMsg{Type: protocol.TypeActorToolRotation, ClientID: 2, Rotation: actors.QuatToArray(QuarterTurn(1))})
	// Our own echo is already applied locally.
	h.e.Receive(&protocol.ActivateToolBoxMsg{Type: protocol.TypeActivateActorToolBox, ClientID: 1})
	h.e.Tick(nil)

	if out := h.e.Outbound(); len(out) != 0 {
		t.Fatalf("echo rebroadcast: %v", out)
	}
	remote := h.volume(2, KindActor)
	if !remote.Active || remote.Preview == nil || remote.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("remote=%+v", remote)
	}
	if !h.volume(1, KindTerrain).Active {
		t.Fatalf("local echo changed activation")
	}
}

func TestMeshPassDrawsAndPositions(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.tap(input.MoveForward)

	v := h.volume(1, KindTerrain)
	n, ok := h.scene.Node(v.Node)
	if !ok || n.Vertices != 96 || n.Indices != 144 {
		t.Fatalf("node=%+v", n)
	}
	if n.Position != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("position=%v", n.Position)
	}
	meshes := n.Meshes
	h.tap(input.MoveForward)
	n, _ = h.scene.Node(v.Node)
	if n.Meshes != meshes {
		t.Fatalf("outline rebuilt without a bounds change")
	}
}

func TestRemoveClientAndFreeAll(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.tap(input.MoveForward)
	if err := h.e.AddClient(2, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	h.e.RemoveClient(1)
	if h.e.HasClient(1) {
		t.Fatalf("client 1 still present")
	}
	if _, ok := h.e.Pending(1); ok {
		t.Fatalf("pending survived removal")
	}
	if h.scene.Len() != 2 {
		t.Fatalf("scene nodes=%d want 2", h.scene.Len())
	}
	h.e.FreeAll()
	if h.scene.Len() != 0 || h.e.HasClient(2) {
		t.Fatalf("FreeAll left %d nodes", h.scene.Len())
	}
}

func confirmed(m protocol.UpdateSelectionBoundsMsg) *protocol.SelectionBoundsConfirmedMsg {
	return &protocol.SelectionBoundsConfirmedMsg{
		Type: protocol.TypeSelectionBoundsConfirmed, ClientID: m.ClientID, Origin: m.Origin, Dimensions: m.Dimensions,
	}
}

func TestExpansionFoldsIntoPendingWhileAwaiting(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	first := boundsMsgs(h.tap(input.ExpandRight))
	second := boundsMsgs(h.tap(input.ExpandRight))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("first=%v second=%v", first, second)
	}
	if second[0].Origin != [3]int{1, 0, 0} || second[0].Dimensions != [3]int{3, 1, 1} {
		t.Fatalf("second target not cumulative: %+v", second[0])
	}
	p, ok := h.e.Pending(1)
	if !ok || p.Origin != (grid.Vec3i{X: 1}) || p.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 1}) {
		t.Fatalf("pending=%+v ok=%v", p, ok)
	}
	v := h.volume(1, KindTerrain)
	if v.Origin != (grid.Vec3i{}) || v.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 1}) {
		t.Fatalf("live volume changed while awaiting: origin=%+v dims=%+v", v.Origin, v.Dimensions)
	}

	h.e.Receive(confirmed(second[0]))
	h.e.Tick(nil)
	if v.Origin != (grid.Vec3i{X: 1}) || v.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 1}) {
		t.Fatalf("after confirm: origin=%+v dims=%+v", v.Origin, v.Dimensions)
	}
}

func TestRotationWhileAwaitingSurvivesOlderConfirmation(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.e.Tick(nil)
	h.e.Outbound()

	moved := boundsMsgs(h.tap(input.MoveForward))
	if len(moved) != 1 || moved[0].Dimensions != [3]int{2, 1, 3} {
		t.Fatalf("move=%+v", moved)
	}
	resent := boundsMsgs(h.tap(input.RotateRight))
	if len(resent) != 1 || resent[0].Origin != [3]int{0, 0, 1} || resent[0].Dimensions != [3]int{3, 1, 2} {
		t.Fatalf("rotation did not resend the cumulative target: %+v", resent)
	}

	v := h.volume(1, KindActor)
	h.e.Receive(confirmed(moved[0]))
	h.e.Tick(nil)
	if v.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 2}) || grid.QuarterTurns(v.Rotation) != 3 {
		t.Fatalf("older confirmation clobbered rotation: dims=%+v turns=%d", v.Dimensions, grid.QuarterTurns(v.Rotation))
	}
	if v.Origin != (grid.Vec3i{Z: 1}) {
		t.Fatalf("origin=%+v", v.Origin)
	}

	h.e.Receive(confirmed(resent[0]))
	h.e.Tick(nil)
	if v.Dimensions != (grid.Vec3i{X: 3, Y: 1, Z: 2}) {
		t.Fatalf("dims=%+v", v.Dimensions)
	}
	if _, ok := h.e.Pending(1); ok {
		t.Fatalf("pending correction survived confirmation")
	}
}

func TestSelectionWhileAwaitingResendsDimensions(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.e.Tick(nil)
	h.e.Outbound()

	moved := boundsMsgs(h.tap(input.MoveRight))
	h.e.SelectActor(4)
	h.e.Tick(nil)
	resent := boundsMsgs(h.e.Outbound())
	if len(moved) != 1 || len(resent) != 1 || resent[0].Dimensions != [3]int{1, 2, 1} {
		t.Fatalf("moved=%+v resent=%+v", moved, resent)
	}

	h.e.Receive(confirmed(moved[0]))
	h.e.Tick(nil)
	if v := h.volume(1, KindActor); v.Dimensions != (grid.Vec3i{X: 1, Y: 2, Z: 1}) {
		t.Fatalf("older confirmation restored the bench: %+v", v.Dimensions)
	}
}

func TestActivationWhileAwaitingKeepsActorDimensions(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.e.Tick(nil)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	moved := boundsMsgs(h.tap(input.MoveForward))
	if len(moved) != 1 || moved[0].Dimensions != [3]int{1, 1, 1} {
		t.Fatalf("move=%+v", moved)
	}
	if p, _ := h.e.Pending(1); p.Kind != KindTerrain {
		t.Fatalf("pending kind=%v", p.Kind)
	}
	h.e.Activate(KindActor)

	h.e.Receive(confirmed(moved[0]))
	h.e.Tick(nil)
	actor, terrain := h.volume(1, KindActor), h.volume(1, KindTerrain)
	if actor.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 3}) {
		t.Fatalf("actor took terrain dimensions: %+v", actor.Dimensions)
	}
	if actor.Origin != (grid.Vec3i{Z: 1}) || terrain.Origin != (grid.Vec3i{Z: 1}) {
		t.Fatalf("origins actor=%+v terrain=%+v", actor.Origin, terrain.Origin)
	}
}

func TestMovementAfterToolSwitchRetargetsPending(t *testing.T) {
	h := newHarness(t)
	h.e.Activate(KindActor)
	h.e.SelectActor(3)
	h.e.Tick(nil)
	h.e.Activate(KindTerrain)
	h.e.Outbound()

	first := boundsMsgs(h.tap(input.MoveForward))
	h.e.Activate(KindActor)
	h.e.Outbound()
	second := boundsMsgs(h.tap(input.MoveForward))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("first=%v second=%v", first, second)
	}
	if second[0].Origin != [3]int{0, 0, 2} || second[0].Dimensions != [3]int{2, 1, 3} {
		t.Fatalf("second=%+v", second[0])
	}

	h.e.Receive(confirmed(first[0]))
	h.e.Tick(nil)
	if v := h.volume(1, KindActor); v.Dimensions != (grid.Vec3i{X: 2, Y: 1, Z: 3}) {
		t.Fatalf("actor dims=%+v", v.Dimensions)
	}
}

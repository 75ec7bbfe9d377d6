package main

import (
	"log"

	"voxeledit.ai/internal/editor"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/input"
)

// bot drives one engine from a step list, one step per call to next.
type bot struct {
	e      *editor.Engine
	in     *input.State
	cam    *editor.LookCamera
	logger *log.Logger

	steps   []step
	pos     int
	pressed []string
}

func (b *bot) done() bool { return b.pos >= len(b.steps) }

// next applies the upcoming step. Presses last exactly one tick; call
// release after the tick.
func (b *bot) next() {
	if b.done() {
		return
	}
	st := b.steps[b.pos]
	b.pos++
	switch st.kind {
	case stepPress:
		b.in.Press(st.action)
		b.pressed = append(b.pressed, st.action)
	case stepActivate:
		if !b.e.Activate(st.target) {
			b.logger.Printf("activate %s refused", st.target)
		}
	case stepSelect:
		b.e.SelectActor(st.actor)
	case stepLook:
		b.cam.Look(st.forward)
	case stepTile:
		b.e.SelectTile(terrain.TileData{Tile: st.tile})
	case stepWait:
	}
}

func (b *bot) release() {
	for _, a := range b.pressed {
		b.in.Release(a)
	}
	b.pressed = b.pressed[:0]
}

// receive queues one relayed message, registering volumes for clients
// seen for the first time.
func (b *bot) receive(raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		b.logger.Printf("inbound dropped: %v", err)
		return
	}
	if id, ok := subject(msg); ok && !b.e.HasClient(id) {
		if err := b.e.AddClient(id, nil); err != nil {
			b.logger.Printf("add client %d: %v", id, err)
		} else {
			b.logger.Printf("peer client=%d", id)
		}
	}
	b.e.Receive(msg)
}

// subject is the client whose volumes a message addresses.
func subject(msg any) (protocol.ClientID, bool) {
	switch m := msg.(type) {
	case *protocol.SelectionBoundsConfirmedMsg:
		return m.ClientID, true
	case *protocol.ActivateToolBoxMsg:
		return m.ClientID, true
	case *protocol.ActorToolRotationMsg:
		return m.ClientID, true
	case *protocol.ActorToolSelectionMsg:
		return m.ClientID, true
	}
	return 0, false
}

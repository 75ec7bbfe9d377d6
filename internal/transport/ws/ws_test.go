package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/relay"
)

func startRelay(t *testing.T) string {
	t.Helper()
	r := relay.New(relay.Config{TickRateHz: 50, TileDimensions: [3]float32{1, 1, 1}, Map: terrain.Bounds{Radius: 32}}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()

	srv := httptest.NewServer(NewServer(r, 16, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, name string) *Link {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	l, err := Dial(ctx, url, name)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func recvDecoded(t *testing.T, l *Link) any {
	t.Helper()
	select {
	case b, ok := <-l.Recv():
		if !ok {
			t.Fatalf("link closed: %v", l.Err())
		}
		m, err := protocol.Decode(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return m
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return nil
}

func TestHandshakeAndConfirmationRoundTrip(t *testing.T) {
	url := startRelay(t)
	a := dial(t, url, "a")
	b := dial(t, url, "b")

	if a.Welcome().ClientID == 0 || a.Welcome().ClientID == b.Welcome().ClientID {
		t.Fatalf("welcome ids a=%d b=%d", a.Welcome().ClientID, b.Welcome().ClientID)
	}
	if a.Welcome().ProtocolVersion != protocol.Version {
		t.Fatalf("welcome=%+v", a.Welcome())
	}

	id := a.Welcome().ClientID
	if err := a.Send(protocol.UpdateSelectionBoundsMsg{
		Type:            protocol.TypeUpdateSelectionBounds,
		ProtocolVersion: protocol.Version,
		ClientID:        id,
		Origin:          [3]int{0, 0, 1},
		Dimensions:      [3]int{1, 1, 1},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, l := range []*Link{a, b} {
		m := recvDecoded(t, l)
		c, ok := m.(*protocol.SelectionBoundsConfirmedMsg)
		if !ok || c.ClientID != id || c.Origin != [3]int{0, 0, 1} {
			t.Fatalf("got %#v", m)
		}
	}
}

func TestHandshakeRejectsBadVersion(t *testing.T) {
	url := startRelay(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.0"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("err=%v want policy violation close", err)
	}
}

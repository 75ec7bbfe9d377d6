package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxeledit.ai/internal/protocol"
)

const pingEvery = 20 * time.Second

// Link is an editor's end of the replicated channel.
type Link struct {
	conn    *websocket.Conn
	welcome protocol.WelcomeMsg

	recv chan []byte
	done chan struct{}

	wmu  sync.Mutex
	once sync.Once
	err  error
}

// Dial connects to a relay, performs the HELLO/WELCOME handshake and
// starts delivering inbound messages on Recv.
func Dial(ctx context.Context, url, name string) (*Link, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	l := &Link{
		conn: conn,
		recv: make(chan []byte, 256),
		done: make(chan struct{}),
	}
	if err := l.Send(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: name}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	_, b, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ws handshake: %w", err)
	}
	if err := json.Unmarshal(b, &l.welcome); err != nil || l.welcome.Type != protocol.TypeWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("ws handshake: expected WELCOME, got %q", b)
	}
	_ = conn.SetReadDeadline(time.Time{})

	go l.readLoop()
	go l.pingLoop()
	return l, nil
}

func (l *Link) Welcome() protocol.WelcomeMsg { return l.welcome }

// Recv yields raw inbound messages; it is closed when the link drops.
func (l *Link) Recv() <-chan []byte { return l.recv }

// Send marshals v and writes it as one text frame.
func (l *Link) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ws send: %w", err)
	}
	l.wmu.Lock()
	defer l.wmu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := l.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("ws send: %w", err)
	}
	return nil
}

// Err reports why the link dropped, once Recv is closed.
func (l *Link) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

func (l *Link) Close() error {
	var err error
	l.once.Do(func() {
		l.wmu.Lock()
		_ = l.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		l.wmu.Unlock()
		err = l.conn.Close()
	})
	return err
}

func (l *Link) readLoop() {
	defer close(l.recv)
	defer close(l.done)
	for {
		_, b, err := l.conn.ReadMessage()
		if err != nil {
			l.err = err
			return
		}
		l.recv <- b
	}
}

func (l *Link) pingLoop() {
	t := time.NewTicker(pingEvery)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			if err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Package ws carries the replicated channel over websockets: a relay
// server handler and the client Link editors dial with.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/relay"
)

const (
	writeWait = 5 * time.Second
	readWait  = 60 * time.Second
)

type Server struct {
	relay    *relay.Relay
	log      *log.Logger
	maxQueue int

	upgrader websocket.Upgrader
}

func NewServer(r *relay.Relay, maxQueue int, logger *log.Logger) *Server {
	if maxQueue <= 0 {
		maxQueue = 64
	}
	s := &Server{
		relay:    r,
		log:      logger,
		maxQueue: maxQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(conn)
		if clientID == 0 {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn.SetPingHandler(func(data string) error {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		})

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						// The relay gave up on this client.
						closeWith(conn, "queue full")
						_ = conn.Close()
						cancel()
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. The relay validates and decodes; only framing is
		// checked here.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			if _, err := protocol.DecodeBase(msg); err != nil {
				continue
			}
			select {
			case s.relay.Inbox() <- relay.Envelope{ClientID: clientID, Raw: msg}:
			case <-ctx.Done():
			}
		}

		s.relay.Leave() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (protocol.ClientID, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return 0, nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return 0, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return 0, nil
	}

	out := make(chan []byte, s.maxQueue)
	respCh := make(chan relay.JoinResponse, 1)
	s.relay.Join() <- relay.JoinRequest{Name: hello.ClientName, Out: out, Resp: respCh}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.relay.Leave() <- resp.Welcome.ClientID
		return 0, nil
	}
	for _, b := range resp.Backlog {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.relay.Leave() <- resp.Welcome.ClientID
			return 0, nil
		}
	}
	if s.log != nil {
		s.log.Printf("ws connected client=%d name=%q backlog=%d", resp.Welcome.ClientID, hello.ClientName, len(resp.Backlog))
	}
	return resp.Welcome.ClientID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Package relay is the authoritative end of the replicated channel. It
// confirms selection bounds, rebroadcasts tool notices and owns the
// shared tile map and actor store that change requests are checked
// against.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sort"
	"time"

	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/persistence/indexdb"
	persistlog "voxeledit.ai/internal/persistence/log"
	"voxeledit.ai/internal/protocol"
)

type Config struct {
	TickRateHz     int
	TileDimensions [3]float32
	Map            terrain.Bounds

	// SnapshotDir enables snapshots: every SnapshotEvery ticks when that
	// is positive, and once when Run stops.
	SnapshotDir   string
	SnapshotEvery uint64
}

// History receives every accepted change.
type History interface {
	Record(c indexdb.Change)
}

// Journal receives every relayed message, accepted or not. Checkpoint
// is called with every snapshot so the journal is readable up to it.
type Journal interface {
	WriteEntry(e persistlog.Entry) error
	Checkpoint() error
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

// JoinResponse carries the welcome plus the backlog a late joiner needs
// to converge: accepted changes in order, then the last confirmed bounds
// of every other client.
type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Backlog [][]byte
}

// Envelope is one raw message read from a client connection.
type Envelope struct {
	ClientID protocol.ClientID
	Raw      []byte
}

type client struct {
	id   protocol.ClientID
	name string
	out  chan []byte
}

type Relay struct {
	cfg    Config
	logger *log.Logger

	history History
	journal Journal

	join  chan JoinRequest
	leave chan protocol.ClientID
	inbox chan Envelope
	stop  chan struct{}

	clients map[protocol.ClientID]*client
	nextID  protocol.ClientID
	tick    uint64

	tiles   *terrain.Map
	placed  *actors.Store
	changes [][]byte
	bounds  map[protocol.ClientID][]byte
}

// New builds a relay. history, journal and logger may be nil.
func New(cfg Config, history History, journal Journal, logger *log.Logger) *Relay {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Relay{
		cfg:     cfg,
		logger:  logger,
		history: history,
		journal: journal,
		join:    make(chan JoinRequest, 16),
		leave:   make(chan protocol.ClientID, 16),
		inbox:   make(chan Envelope, 1024),
		stop:    make(chan struct{}),
		clients: map[protocol.ClientID]*client{},
		tiles:   terrain.NewMap(cfg.Map),
		placed:  actors.NewStore(),
		bounds:  map[protocol.ClientID][]byte{},
	}
}

func (r *Relay) Join() chan<- JoinRequest { return r.join }
func (r *Relay) Leave() chan<- protocol.ClientID { return r.leave }
func (r *Relay) Inbox() chan<- Envelope { return r.inbox }

func (r *Relay) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []protocol.ClientID
	var pendingMsgs []Envelope

	for {
		select {
		case <-ctx.Done():
			r.writeSnapshot()
			return ctx.Err()
		case <-r.stop:
			r.writeSnapshot()
			return nil
		case req := <-r.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-r.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-r.inbox:
			pendingMsgs = append(pendingMsgs, env)
		case <-ticker.C:
			r.step(pendingJoins, pendingLeaves, pendingMsgs)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingMsgs = pendingMsgs[:0]
		}
	}
}

func (r *Relay) Stop() { close(r.stop) }

func (r *Relay) step(joins []JoinRequest, leaves []protocol.ClientID, msgs []Envelope) {
	r.tick++
	for _, req := range joins {
		resp := r.joinClient(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}
	for _, env := range msgs {
		r.handle(env)
	}
	for _, id := range leaves {
		if c := r.clients[id]; c != nil {
			r.logger.Printf("leave client=%d name=%s", id, c.name)
		}
		delete(r.clients, id)
		delete(r.bounds, id)
	}
	if r.cfg.SnapshotEvery > 0 && r.tick%r.cfg.SnapshotEvery == 0 {
		r.writeSnapshot()
	}
}

func (r *Relay) joinClient(req JoinRequest) JoinResponse {
	r.nextID++
	id := r.nextID
	name := req.Name
	if name == "" {
		name = "editor"
	}
	if req.Out != nil {
		r.clients[id] = &client{id: id, name: name, out: req.Out}
	}
	r.logger.Printf("join client=%d name=%s", id, name)

	backlog := append([][]byte(nil), r.changes...)
	for _, other := range r.sortedBoundsOwners() {
		if other != id {
			backlog = append(backlog, r.bounds[other])
		}
	}
	return JoinResponse{
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			ClientID:        id,
			TickRateHz:      r.cfg.TickRateHz,
			TileDimensions:  r.cfg.TileDimensions,
		},
		Backlog: backlog,
	}
}

func (r *Relay) sortedBoundsOwners() []protocol.ClientID {
	ids := make([]protocol.ClientID, 0, len(r.bounds))
	for id := range r.bounds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Relay) sortedClients() []protocol.ClientID {
	ids := make([]protocol.ClientID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// broadcast fans out a notice that a later one supersedes; a full client
// queue loses its oldest message.
func (r *Relay) broadcast(b []byte) {
	for _, id := range r.sortedClients() {
		if sendLatest(r.clients[id].out, b) {
			r.logger.Printf("queue full client=%d dropped oldest", id)
		}
	}
}

// broadcastChange fans out an accepted change. Changes are never dropped:
// a client whose queue is full is disconnected and converges again from
// the backlog when it rejoins.
func (r *Relay) broadcastChange(b []byte) {
	for _, id := range r.sortedClients() {
		select {
		case r.clients[id].out <- b:
		default:
			r.logger.Printf("disconnect client=%d reason=queue_full", id)
			r.disconnect(id)
		}
	}
}

// disconnect forgets a client and closes its queue; the connection's
// writer ends on the closed queue.
func (r *Relay) disconnect(id protocol.ClientID) {
	c := r.clients[id]
	if c == nil {
		return
	}
	delete(r.clients, id)
	delete(r.bounds, id)
	close(c.out)
}

func (r *Relay) sendTo(id protocol.ClientID, v any) {
	c := r.clients[id]
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.logger.Printf("marshal %T: %v", v, err)
		return
	}
	sendLatest(c.out, b)
}

func (r *Relay) record(env Envelope, typ string, accepted bool, code string) {
	if r.journal == nil {
		return
	}
	e := persistlog.Entry{
		Tick:     r.tick,
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		ClientID: env.ClientID,
		Type:     typ,
		Accepted: accepted,
		Code:     code,
	}
	if json.Valid(env.Raw) {
		e.Msg = json.RawMessage(env.Raw)
	}
	if err := r.journal.WriteEntry(e); err != nil {
		r.logger.Printf("journal write: %v", err)
	}
}

// sendLatest never blocks the tick; a full client queue loses its oldest
// message. It reports whether anything was dropped.
func sendLatest(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return false
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
	return true
}

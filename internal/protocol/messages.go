package protocol

// HELLO (client -> relay)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (relay -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ClientID        ClientID   `json:"client_id"`
	TickRateHz      int        `json:"tick_rate_hz"`
	TileDimensions  [3]float32 `json:"tile_dimensions"`
}

// ACK (relay -> client): outcome of a change request that was refused.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Box is a grid box on the wire: anchor cell plus signed dimensions.
type Box struct {
	Center     [3]int `json:"center"`
	Dimensions [3]int `json:"dimensions"`
}

// UPDATE_SELECTION_BOUNDS (client -> relay): the absolute target a client
// wants its active volume to converge to.
type UpdateSelectionBoundsMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ClientID        ClientID `json:"client_id"`
	Origin          [3]int   `json:"origin"`
	Dimensions      [3]int   `json:"dimensions"`
}

// SELECTION_BOUNDS_CONFIRMED (relay -> clients): authoritative bounds.
type SelectionBoundsConfirmedMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ClientID        ClientID `json:"client_id"`
	Origin          [3]int   `json:"origin"`
	Dimensions      [3]int   `json:"dimensions"`
}

// ACTIVATE_TERRAIN_TOOL_BOX / ACTIVATE_ACTOR_TOOL_BOX (both directions).
type ActivateToolBoxMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ClientID        ClientID `json:"client_id"`
}

// ACTOR_TOOL_ROTATION (both directions). Rotation is a quaternion as
// [w, x, y, z].
type ActorToolRotationMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ClientID        ClientID   `json:"client_id"`
	Rotation        [4]float32 `json:"rotation"`
}

// ACTOR_TOOL_SELECTION (both directions). ActorID is the palette
// prototype id, not a placed actor.
type ActorToolSelectionMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ClientID        ClientID `json:"client_id"`
	ActorID         int64    `json:"actor_id"`
}

type ActorInsertion struct {
	ActorID     string     `json:"actor_id"`
	PrototypeID int64      `json:"prototype_id"`
	Position    [3]int     `json:"position"`
	Rotation    [4]float32 `json:"rotation"`
	// Payload is the zstd-compressed JSON of the cloned actor subtree.
	Payload []byte `json:"payload"`
}

type ActorRemoval struct {
	ActorID string `json:"actor_id"`
}

// ACTOR_CHANGE (client -> relay -> clients). Exactly one of Insertion
// and Removal is set.
type ActorChangeMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	HistoryClientID ClientID        `json:"history_client_id"`
	Insertion       *ActorInsertion `json:"insertion,omitempty"`
	Removal         *ActorRemoval   `json:"removal,omitempty"`
}

type Tile struct {
	Tile        uint16 `json:"tile"`
	Orientation [3]int `json:"orientation"`
}

type MapInsertion struct {
	Box  Box  `json:"box"`
	Tile Tile `json:"tile"`
}

type MapRemoval struct {
	Box Box `json:"box"`
}

// MAP_CHANGE (client -> relay -> clients). Exactly one of Insertion and
// Removal is set.
type MapChangeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	HistoryClientID ClientID      `json:"history_client_id"`
	Insertion       *MapInsertion `json:"insertion,omitempty"`
	Removal         *MapRemoval   `json:"removal,omitempty"`
}

package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAck     = "ACK"

	TypeUpdateSelectionBounds    = "UPDATE_SELECTION_BOUNDS"
	TypeSelectionBoundsConfirmed = "SELECTION_BOUNDS_CONFIRMED"
	TypeActivateTerrainToolBox   = "ACTIVATE_TERRAIN_TOOL_BOX"
	TypeActivateActorToolBox     = "ACTIVATE_ACTOR_TOOL_BOX"
	TypeActorToolRotation        = "ACTOR_TOOL_ROTATION"
	TypeActorToolSelection       = "ACTOR_TOOL_SELECTION"

	TypeActorChange = "ACTOR_CHANGE"
	TypeMapChange   = "MAP_CHANGE"
)

// ClientID tags every volume and every change request with its owner.
type ClientID uint64

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

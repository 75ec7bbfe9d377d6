package protocol

import (
	"encoding/json"
	"fmt"
)

// Decode routes a raw message by its type and returns the typed value.
func Decode(b []byte) (any, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, fmt.Errorf("decode base: %w", err)
	}
	var v any
	switch base.Type {
	case TypeHello:
		v = &HelloMsg{}
	case TypeWelcome:
		v = &WelcomeMsg{}
	case TypeAck:
		v = &AckMsg{}
	case TypeUpdateSelectionBounds:
		v = &UpdateSelectionBoundsMsg{}
	case TypeSelectionBoundsConfirmed:
		v = &SelectionBoundsConfirmedMsg{}
	case TypeActivateTerrainToolBox, TypeActivateActorToolBox:
		v = &ActivateToolBoxMsg{}
	case TypeActorToolRotation:
		v = &ActorToolRotationMsg{}
	case TypeActorToolSelection:
		v = &ActorToolSelectionMsg{}
	case TypeActorChange:
		v = &ActorChangeMsg{}
	case TypeMapChange:
		v = &MapChangeMsg{}
	default:
		return nil, fmt.Errorf("unknown message type %q", base.Type)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", base.Type, err)
	}
	return v, nil
}

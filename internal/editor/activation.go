package editor

import "voxeledit.ai/internal/protocol"

// Activate makes the local client's volume of kind the active one and
// announces it. It does nothing before the client's volumes exist.
func (e *Engine) Activate(k Kind) bool {
	if !e.HasClient(e.local) {
		return false
	}
	e.setActive(e.local, k)
	e.emit(protocol.ActivateToolBoxMsg{
		Type:            activationType(k),
		ProtocolVersion: protocol.Version,
		ClientID:        e.local,
	})
	return true
}

func (e *Engine) setActive(id protocol.ClientID, k Kind) {
	for _, other := range kinds {
		if other == k {
			continue
		}
		if v := e.volumes[volumeKey{id, other}]; v != nil && v.Active {
			v.Active = false
			e.scene.SetVisible(v.Node, false)
		}
	}
	if v := e.volumes[volumeKey{id, k}]; v != nil {
		v.Active = true
		e.scene.SetVisible(v.Node, true)
	}
}

func activationType(k Kind) string {
	if k == KindActor {
		return protocol.TypeActivateActorToolBox
	}
	return protocol.TypeActivateTerrainToolBox
}

func activationKind(msgType string) (Kind, bool) {
	switch msgType {
	case protocol.TypeActivateTerrainToolBox:
		return KindTerrain, true
	case protocol.TypeActivateActorToolBox:
		return KindActor, true
	default:
		return 0, false
	}
}

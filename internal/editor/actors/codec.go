package actors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"voxeledit.ai/internal/sim/grid"
)

// Snapshot is the serialized form of an inserted actor.
type Snapshot struct {
	ID        ID         `json:"id"`
	Prototype int64      `json:"prototype"`
	Position  [3]int     `json:"position"`
	Rotation  [4]float32 `json:"rotation"`
	Bounds    [3]int     `json:"bounds"`
	Root      Part       `json:"root"`
}

func QuatToArray(q mgl32.Quat) [4]float32 { return [4]float32{q.W, q.V[0], q.V[1], q.V[2]} }

func QuatFromArray(a [4]float32) mgl32.Quat {
	return mgl32.Quat{W: a[0], V: mgl32.Vec3{a[1], a[2], a[3]}}
}

func (s Snapshot) Placed() Placed {
	return Placed{
		ID:        s.ID,
		Prototype: s.Prototype,
		Position:  grid.FromArray(s.Position),
		Rotation:  QuatFromArray(s.Rotation),
		Bounds:    grid.FromArray(s.Bounds),
	}
}

// Encode writes s as zstd-compressed JSON.
func Encode(s Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("actor encode: %w", err)
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(b []byte) (Snapshot, error) {
	var s Snapshot
	dec, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return s, err
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return s, fmt.Errorf("actor decode: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("actor decode: %w", err)
	}
	return s, nil
}

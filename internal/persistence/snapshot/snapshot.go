// Package snapshot saves and restores the relay's authoritative state:
// the tile map, the placed actors and the change backlog late joiners
// replay.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	NextClientID uint64 `json:"next_client_id"`

	Chunks  []ChunkV1 `json:"chunks"`
	Actors  []ActorV1 `json:"actors"`
	Backlog [][]byte  `json:"backlog"`
}

// ChunkV1 is one loaded chunk. Tiles is the RLE of the tile ids in chunk
// index order; Oriented lists the cells whose orientation is not zero.
type ChunkV1 struct {
	CX       int          `json:"cx"`
	CY       int          `json:"cy"`
	CZ       int          `json:"cz"`
	Tiles    []byte       `json:"tiles"`
	Oriented []OrientedV1 `json:"oriented,omitempty"`
}

type OrientedV1 struct {
	Index       int    `json:"i"`
	Orientation [3]int `json:"o"`
}

type ActorV1 struct {
	ID        string     `json:"id"`
	Prototype int64      `json:"prototype"`
	Position  [3]int     `json:"position"`
	Rotation  [4]float32 `json:"rotation"`
	Bounds    [3]int     `json:"bounds"`
}

func FileName(tick uint64) string { return fmt.Sprintf("%d.snap.zst", tick) }

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Written beside the target, then renamed into place.
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is for humans and tools; gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// Latest returns the highest-tick snapshot in dir, or "" when there is none.
func Latest(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

package snapshot

import (
	"encoding/binary"
	"fmt"
)

// EncodeTiles run-length encodes tile ids as uvarint (id, run) pairs.
func EncodeTiles(ids []uint16) []byte {
	out := make([]byte, 0, 16)
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(id))
		out = append(out, tmp[:n]...)
		n = binary.PutUvarint(tmp[:], uint64(run))
		out = append(out, tmp[:n]...)
		i += run
	}
	return out
}

// DecodeTiles expands EncodeTiles output, which must hold exactly want ids.
func DecodeTiles(b []byte, want int) ([]uint16, error) {
	out := make([]uint16, 0, want)
	for i := 0; i < len(b); {
		id, n := binary.Uvarint(b[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(b[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("tile id too large: %d", id)
		}
		if run == 0 || uint64(len(out))+run > uint64(want) {
			return nil, fmt.Errorf("run of %d overflows %d tiles", run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("decoded %d tiles, want %d", len(out), want)
	}
	return out, nil
}

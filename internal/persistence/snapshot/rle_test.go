package snapshot

import "testing"

func TestTilesRoundTrip(t *testing.T) {
	ids := make([]uint16, 4096)
	ids[0] = 7
	ids[1] = 7
	ids[4095] = 300

	b := EncodeTiles(ids)
	if len(b) > 16 {
		t.Fatalf("encoded %d bytes, runs not collapsed", len(b))
	}
	got, err := DecodeTiles(b, len(ids))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], ids[i])
		}
	}
}

func TestDecodeTilesRejectsWrongLength(t *testing.T) {
	b := EncodeTiles([]uint16{1, 1, 2})
	if _, err := DecodeTiles(b, 2); err == nil {
		t.Fatalf("overflow accepted")
	}
	if _, err := DecodeTiles(b, 4); err == nil {
		t.Fatalf("short input accepted")
	}
	if _, err := DecodeTiles([]byte{0x80}, 1); err == nil {
		t.Fatalf("truncated varint accepted")
	}
}

package types

import "testing"

func TestVinRoundTrip(t *testing.T) {
	v := Vin{
		Hash:  Hash256{0xaa, 0xbb},
		NVout: 3,
		Value: NewU256(500),
		Alive: 1,
	}
	encoded, err := v.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeVin(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hash != v.Hash || decoded.NVout != v.NVout || decoded.Alive != v.Alive {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, v)
	}
	if decoded.Value.Cmp(v.Value) != 0 {
		t.Fatalf("value mismatch: got %s, want %s", decoded.Value, v.Value)
	}
}

func TestTombstoneIsNotLive(t *testing.T) {
	if Tombstone().IsLive() {
		t.Fatal("tombstone must not be live")
	}
}

func TestDecodeVinRejectsGarbage(t *testing.T) {
	if _, err := DecodeVin([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected decode error for malformed input")
	}
}

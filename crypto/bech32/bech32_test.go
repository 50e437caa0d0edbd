package bech32

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}

	enc, err := Encode("swap", payload)
	if err != nil {
		t.Fatalf("encode: %+v", err)
	}

	hrp, got, err := Decode(string(enc))
	if err != nil {
		t.Fatalf("decode: %+v", err)
	}
	if hrp != "swap" {
		t.Fatalf("want hrp swap, got %q", hrp)
	}
	if !bytes.Equal(payload, got) {
		t.Fatalf("payload mismatch: %x != %x", payload, got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, _, err := Decode("not a bech32 string"); err == nil {
		t.Fatal("expected error")
	}
}

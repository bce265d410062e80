package layers

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/zoobzio/binpack"
)

func TestUDPRoundTrip(t *testing.T) {
	defer binpack.Reset()

	payload := []byte("datagram")
	want := NewUDPHeader(5353, 5353, payload)

	wire, err := binpack.Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), UDPHeaderSize+len(payload); got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}
	if got := binary.BigEndian.Uint16(wire[4:6]); got != want.Length {
		t.Errorf("length word = %d, want %d", got, want.Length)
	}

	got, err := binpack.Unmarshal[UDPHeader](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.SrcPort != 5353 || got.Length != want.Length {
		t.Errorf("decoded header = %+v", got)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Errorf("payload = %q, want %q", got.Payload, payload)
	}
}

func TestUDPPseudoHeaderChecksum(t *testing.T) {
	defer binpack.Reset()

	src := [4]byte{192, 168, 0, 10}
	dst := [4]byte{192, 168, 0, 20}

	hdr := NewUDPHeader(68, 67, []byte{0x01, 0x02, 0x03})
	segment, err := binpack.Marshal(&hdr)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	sum := PseudoHeaderChecksum(src, dst, ProtocolUDP, segment)
	binary.BigEndian.PutUint16(segment[6:8], sum)

	pseudo := make([]byte, 12, 12+len(segment))
	copy(pseudo[0:4], src[:])
	copy(pseudo[4:8], dst[:])
	pseudo[9] = ProtocolUDP
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(segment)))
	if verify := binpack.InternetChecksum(append(pseudo, segment...)); verify != 0 {
		t.Errorf("verification checksum = %#04x, want 0", verify)
	}
}

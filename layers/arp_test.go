package layers

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/binpack"
)

func TestARPRoundTrip(t *testing.T) {
	defer binpack.Reset()

	want := NewARPRequest(
		[6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		[4]byte{192, 168, 1, 2},
		[4]byte{192, 168, 1, 1},
	)

	wire, err := binpack.Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), ARPPacketSize; got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}
	// Hardware type 1, protocol type 0x0800, sizes 6 and 4, opcode 1.
	wantPrefix := []byte{0x00, 0x01, 0x08, 0x00, 0x06, 0x04, 0x00, 0x01}
	for i, b := range wantPrefix {
		if wire[i] != b {
			t.Errorf("wire[%d] = %#02x, want %#02x", i, wire[i], b)
		}
	}

	got, err := binpack.Unmarshal[ARPPacket](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestARPRejectsBadOperation(t *testing.T) {
	defer binpack.Reset()

	pkt := NewARPRequest([6]byte{1}, [4]byte{2}, [4]byte{3})
	wire, err := binpack.Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// Opcode 3 is neither request nor reply.
	wire[7] = 3

	_, err = binpack.Unmarshal[ARPPacket](wire)
	var ve *binpack.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Field != "Operation" || ve.Value != 3 {
		t.Errorf("ValidationError = %+v, want field Operation value 3", ve)
	}
}

func TestARPRejectsForeignAddressSizes(t *testing.T) {
	defer binpack.Reset()

	pkt := NewARPRequest([6]byte{1}, [4]byte{2}, [4]byte{3})
	wire, err := binpack.Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// A hardware address length other than 6 would shift every following
	// field; the decoder rejects it instead of misparsing.
	wire[4] = 8

	_, err = binpack.Unmarshal[ARPPacket](wire)
	if !errors.Is(err, binpack.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

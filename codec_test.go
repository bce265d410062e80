package binpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

type fixedFields struct {
	A uint8
	B int16
	C uint32
	D uint64
	E [4]byte
	F int8
}

type tailed struct {
	Kind    uint8
	Length  uint16
	Payload []byte
}

type inner struct {
	X uint16
	Y uint16
}

type outer struct {
	Tag    uint8
	Child  inner
	ByRef  *inner
	Closer uint8
}

type conditional struct {
	Flags  uint8
	Option uint32 `bin.when:"Flags=1"`
	Always uint8
}

type validated struct {
	Version uint8 `bin.validate:"min=1,max=5"`
	Rest    uint8
}

type checksummed struct {
	Kind uint8
	Code uint8
	Sum  uint16 `bin.checksum:"internet"`
	Body uint32
}

type deep1 struct {
	V uint8
	N deep2
}

type deep2 struct {
	V uint8
	N deep3
}

type deep3 struct {
	V uint8
}

func TestRoundTripFixed(t *testing.T) {
	defer Reset()

	want := fixedFields{
		A: 0xAB,
		B: -1234,
		C: 0xDEADBEEF,
		D: 0x0102030405060708,
		E: [4]byte{0x0A, 0x0B, 0x0C, 0x0D},
		F: -5,
	}

	wire, err := Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), 1+2+4+8+4+1; got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}

	got, err := Unmarshal[fixedFields](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestRoundTripTail(t *testing.T) {
	defer Reset()

	want := tailed{Kind: 2, Length: 5, Payload: []byte("hello")}

	wire, err := Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), 3+5; got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}

	got, err := Unmarshal[tailed](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestRoundTripEmptyTail(t *testing.T) {
	defer Reset()

	want := tailed{Kind: 1, Length: 0}

	wire, err := Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got, err := Unmarshal[tailed](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Payload != nil {
		t.Errorf("empty tail should decode as nil, got %v", got.Payload)
	}
}

func TestRoundTripNested(t *testing.T) {
	defer Reset()

	want := outer{
		Tag:    7,
		Child:  inner{X: 1, Y: 2},
		ByRef:  &inner{X: 3, Y: 4},
		Closer: 9,
	}

	wire, err := Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), 1+4+4+1; got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}

	got, err := Unmarshal[outer](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestNestedNilPointerEncodesZero(t *testing.T) {
	defer Reset()

	wire, err := Marshal(&outer{Tag: 1, Closer: 2})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 2}
	if !bytes.Equal(wire, want) {
		t.Errorf("wire = %v, want %v", wire, want)
	}
}

func TestConditionalField(t *testing.T) {
	defer Reset()

	present := conditional{Flags: 1, Option: 0xCAFEBABE, Always: 3}
	wire, err := Marshal(&present)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, want := len(wire), 6; got != want {
		t.Fatalf("len(wire) with option = %d, want %d", got, want)
	}
	got, err := Unmarshal[conditional](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, present) {
		t.Errorf("round trip = %+v, want %+v", *got, present)
	}

	absent := conditional{Flags: 0, Always: 3}
	wire, err = Marshal(&absent)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, want := len(wire), 2; got != want {
		t.Fatalf("len(wire) without option = %d, want %d", got, want)
	}
	got, err = Unmarshal[conditional](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Option != 0 {
		t.Errorf("absent conditional should stay at zero, got %#x", got.Option)
	}
	if got.Always != 3 {
		t.Errorf("field after absent conditional = %d, want 3", got.Always)
	}
}

func TestEncodeDeterminism(t *testing.T) {
	defer Reset()

	pkt := tailed{Kind: 9, Length: 3, Payload: []byte{1, 2, 3}}

	first, err := Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	second, err := Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("repeated encode differs: %v vs %v", first, second)
	}
}

func TestDecodeTruncated(t *testing.T) {
	defer Reset()

	// fixedFields needs 20 bytes; every shorter buffer must fail with a
	// TruncatedError and never a panic or partial instance.
	for n := 0; n < 20; n++ {
		_, err := Unmarshal[fixedFields](make([]byte, n))

		var te *TruncatedError
		if !errors.As(err, &te) {
			t.Fatalf("len %d: error = %v, want TruncatedError", n, err)
		}
		if te.Expected != 20 {
			t.Errorf("len %d: Expected = %d, want 20", n, te.Expected)
		}
		if te.Available != n {
			t.Errorf("len %d: Available = %d, want %d", n, te.Available, n)
		}
	}
}

func TestDecodeBufferOverLimit(t *testing.T) {
	defer Reset()
	defer ResetLimits()

	if err := SetMaxBufferSize(8); err != nil {
		t.Fatalf("SetMaxBufferSize() error: %v", err)
	}

	_, err := Unmarshal[tailed](make([]byte, 9))

	var oe *OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want OverflowError", err)
	}
	if oe.Requested != 9 || oe.Max != 8 {
		t.Errorf("OverflowError = %+v, want Requested 9 Max 8", oe)
	}
}

func TestEncodeBufferOverLimit(t *testing.T) {
	defer Reset()
	defer ResetLimits()

	if err := SetMaxBufferSize(16); err != nil {
		t.Fatalf("SetMaxBufferSize() error: %v", err)
	}

	pkt := tailed{Kind: 1, Payload: make([]byte, 32)}
	_, err := Marshal(&pkt)

	var oe *OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want OverflowError", err)
	}
	if oe.Requested != 35 || oe.Max != 16 {
		t.Errorf("OverflowError = %+v, want Requested 35 Max 16", oe)
	}
}

func TestDecodeNestingDepth(t *testing.T) {
	defer Reset()
	defer ResetLimits()

	if err := SetMaxNestingDepth(1); err != nil {
		t.Fatalf("SetMaxNestingDepth() error: %v", err)
	}

	// deep1 nests two levels; the second crosses the limit.
	_, err := Unmarshal[deep1](make([]byte, 3))

	var de *DepthError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DepthError", err)
	}
	if de.Depth != 2 || de.Max != 1 {
		t.Errorf("DepthError = %+v, want Depth 2 Max 1", de)
	}

	// Within the limit the same buffer decodes fine.
	if err := SetMaxNestingDepth(2); err != nil {
		t.Fatalf("SetMaxNestingDepth() error: %v", err)
	}
	if _, err := Unmarshal[deep1](make([]byte, 3)); err != nil {
		t.Fatalf("Unmarshal() within depth limit: %v", err)
	}
}

func TestDecodeValidation(t *testing.T) {
	defer Reset()

	if _, err := Unmarshal[validated]([]byte{3, 0}); err != nil {
		t.Fatalf("Unmarshal() of valid value: %v", err)
	}

	_, err := Unmarshal[validated]([]byte{6, 0})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Field != "Version" || ve.Value != 6 {
		t.Errorf("ValidationError = %+v, want field Version value 6", ve)
	}
}

func TestAutoChecksum(t *testing.T) {
	defer Reset()

	pkt := checksummed{Kind: 1, Code: 2, Body: 0x11223344}
	wire, err := Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	if got := binary.BigEndian.Uint16(wire[2:4]); got == 0 {
		t.Error("checksum field was not patched")
	}
	if got := InternetChecksum(wire); got != 0 {
		t.Errorf("checksum over encoded buffer = %#04x, want 0", got)
	}

	got, err := Unmarshal[checksummed](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Body != pkt.Body || got.Kind != pkt.Kind {
		t.Errorf("round trip = %+v, want fields of %+v", *got, pkt)
	}
}

func TestPresetChecksumNotPatched(t *testing.T) {
	defer Reset()

	// A nonzero checksum is caller-supplied and must be written as-is;
	// only the sentinel 0 requests computation.
	pkt := checksummed{Kind: 1, Sum: 0xBEEF, Body: 2}
	wire, err := Marshal(&pkt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	if got := binary.BigEndian.Uint16(wire[2:4]); got != 0xBEEF {
		t.Errorf("checksum field = %#04x, want 0xBEEF", got)
	}
}

func TestBitFieldRoundTrip(t *testing.T) {
	defer Reset()

	want := bitHeader{Version: 4, IHL: 5, Flags: 0x2, Offset: 0x1234, TTL: 64}

	wire, err := Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if got, wantLen := len(wire), 4; got != wantLen {
		t.Fatalf("len(wire) = %d, want %d", got, wantLen)
	}
	if wire[0] != 0x45 {
		t.Errorf("packed version/IHL byte = %#02x, want 0x45", wire[0])
	}
	if got := binary.BigEndian.Uint16(wire[1:3]); got != 0x2<<13|0x1234 {
		t.Errorf("packed flags/offset word = %#04x, want %#04x", got, 0x2<<13|0x1234)
	}

	got, err := Unmarshal[bitHeader](wire)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestMarshalNil(t *testing.T) {
	defer Reset()

	_, err := Marshal[tailed](nil)
	if !errors.Is(err, ErrNilInstance) {
		t.Errorf("error = %v, want ErrNilInstance", err)
	}
}

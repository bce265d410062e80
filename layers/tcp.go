package layers

// TCP flag bits (the Flags byte).
const (
	TCPFin uint8 = 0x01
	TCPSyn uint8 = 0x02
	TCPRst uint8 = 0x04
	TCPPsh uint8 = 0x08
	TCPAck uint8 = 0x10
	TCPUrg uint8 = 0x20
)

// TCPHeader is the 20-byte TCP header. DataOffset counts 32-bit words, so 5
// means no options; options and segment payload travel in the trailing
// bytes.
//
// The TCP checksum covers a pseudo-header built from the enclosing IPv4
// addresses, so the codec cannot compute it from this structure alone.
// Compute it with PseudoHeaderChecksum over the encoded segment and set the
// field before encoding, or leave it 0 for stacks that offload checksums.
type TCPHeader struct {
	SrcPort       uint16
	DstPort       uint16
	SeqNumber     uint32
	AckNumber     uint32
	DataOffset    uint8 `bin.bits:"4" bin.validate:"min=5,max=15"`
	Reserved      uint8 `bin.bits:"4"`
	Flags         uint8
	Window        uint16
	Checksum      uint16
	UrgentPointer uint16
	Options       []byte
}

// TCPHeaderSize is the fixed header width in bytes, before options.
const TCPHeaderSize = 20

// HasFlag reports whether the given flag bit is set.
func (h *TCPHeader) HasFlag(f uint8) bool { return h.Flags&f != 0 }

// SetFlag sets the given flag bit.
func (h *TCPHeader) SetFlag(f uint8) { h.Flags |= f }

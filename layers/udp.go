package layers

// UDPHeader is the 8-byte UDP header followed by the datagram payload.
// Length counts the header plus payload.
//
// Like TCP, the UDP checksum covers a pseudo-header from the enclosing IPv4
// layer; use PseudoHeaderChecksum to fill it, or leave it 0, which RFC 768
// defines as "no checksum".
type UDPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
	Payload  []byte
}

// UDPHeaderSize is the fixed header width in bytes.
const UDPHeaderSize = 8

// NewUDPHeader builds a header with Length filled in for the given payload.
func NewUDPHeader(srcPort, dstPort uint16, payload []byte) UDPHeader {
	return UDPHeader{
		SrcPort: srcPort,
		DstPort: dstPort,
		Length:  uint16(UDPHeaderSize + len(payload)),
		Payload: payload,
	}
}

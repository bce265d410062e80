// Package layers defines wire structures for common network protocols,
// declared as binpack-tagged structs: IPv4 (RFC 791), ICMP (RFC 792), TCP,
// UDP, ARP (RFC 826) and the DNS message header (RFC 1035). The layouts
// match the RFCs bit for bit, so encoded packets interoperate with real
// network stacks.
package layers

import (
	"github.com/zoobzio/binpack"
)

// IP protocol numbers carried in the IPv4 Protocol field.
const (
	ProtocolICMP uint8 = 1
	ProtocolTCP  uint8 = 6
	ProtocolUDP  uint8 = 17
)

// IPv4 flag bits (the 3-bit Flags field).
const (
	IPv4DontFragment  uint8 = 0x2
	IPv4MoreFragments uint8 = 0x1
)

// IPv4Header is the 20-byte IPv4 header (RFC 791, section 3.1).
//
// Wire layout:
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-------+-------+---------------+-------------------------------+
//	|Version|  IHL  |      TOS      |         Total Length          |
//	+-------+-------+---------------+-----+-------------------------+
//	|        Identification         |Flags|    Fragment Offset      |
//	+---------------+---------------+-----+-------------------------+
//	|      TTL      |   Protocol    |       Header Checksum         |
//	+---------------+---------------+-------------------------------+
//	|                       Source Address                          |
//	+---------------------------------------------------------------+
//	|                     Destination Address                       |
//	+---------------------------------------------------------------+
//
// Options are not supported: IHL is pinned to 5, so the header is always
// 20 bytes and Payload starts immediately after it. The checksum covers the
// fixed header only, per the RFC; leave Checksum at 0 to have it computed
// during encoding.
type IPv4Header struct {
	Version        uint8 `bin.bits:"4" bin.validate:"eq=4"`
	IHL            uint8 `bin.bits:"4" bin.validate:"eq=5"`
	TOS            uint8
	TotalLength    uint16
	Identification uint16
	Flags          uint8  `bin.bits:"3"`
	FragmentOffset uint16 `bin.bits:"13"`
	TTL            uint8
	Protocol       uint8
	Checksum       uint16 `bin.checksum:"internet-header"`
	Src            [4]byte
	Dst            [4]byte
	Payload        []byte
}

// IPv4HeaderSize is the fixed header width in bytes.
const IPv4HeaderSize = 20

// NewIPv4Header returns a header with Version, IHL and TotalLength filled in
// for the given payload length.
func NewIPv4Header(protocol uint8, src, dst [4]byte, payloadLen int) IPv4Header {
	return IPv4Header{
		Version:     4,
		IHL:         5,
		TotalLength: uint16(IPv4HeaderSize + payloadLen),
		TTL:         64,
		Protocol:    protocol,
		Src:         src,
		Dst:         dst,
	}
}

// VerifyIPv4Checksum reports whether the first 20 bytes of data carry a
// valid header checksum.
func VerifyIPv4Checksum(data []byte) bool {
	if len(data) < IPv4HeaderSize {
		return false
	}
	return binpack.InternetChecksum(data[:IPv4HeaderSize]) == 0
}

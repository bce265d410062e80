package layers

import (
	"github.com/zoobzio/binpack"
)

// ICMP message types (RFC 792).
const (
	ICMPEchoReply        uint8 = 0
	ICMPDestUnreachable  uint8 = 3
	ICMPEchoRequest      uint8 = 8
	ICMPTimeExceeded     uint8 = 11
	ICMPParameterProblem uint8 = 12
)

// ICMPEcho is an ICMP echo request or reply (RFC 792): the 8-byte header
// followed by arbitrary data that the receiver returns unchanged.
//
// The checksum covers the whole message. Leave Checksum at 0 to have it
// computed during encoding.
type ICMPEcho struct {
	Type           uint8
	Code           uint8
	Checksum       uint16 `bin.checksum:"internet"`
	Identifier     uint16
	SequenceNumber uint16
	Data           []byte
}

// ICMPHeaderSize is the echo header width in bytes, before the data.
const ICMPHeaderSize = 8

// NewEchoRequest builds an echo request with the given identifier, sequence
// number and data, ready for encoding.
func NewEchoRequest(identifier, seq uint16, data []byte) ICMPEcho {
	return ICMPEcho{
		Type:           ICMPEchoRequest,
		Identifier:     identifier,
		SequenceNumber: seq,
		Data:           data,
	}
}

// VerifyICMPChecksum reports whether an encoded ICMP message carries a valid
// checksum. The checksum of a correct message, included in the sum, is zero.
func VerifyICMPChecksum(data []byte) bool {
	if len(data) < ICMPHeaderSize {
		return false
	}
	return binpack.InternetChecksum(data) == 0
}

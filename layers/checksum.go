package layers

import (
	"encoding/binary"

	"github.com/zoobzio/binpack"
)

// PseudoHeaderChecksum computes the TCP/UDP checksum: the internet checksum
// over the IPv4 pseudo-header (source address, destination address, zero,
// protocol, segment length) followed by the encoded segment, which must have
// its checksum field zeroed.
func PseudoHeaderChecksum(src, dst [4]byte, protocol uint8, segment []byte) uint16 {
	pseudo := make([]byte, 12, 12+len(segment))
	copy(pseudo[0:4], src[:])
	copy(pseudo[4:8], dst[:])
	pseudo[9] = protocol
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(segment)))
	return binpack.InternetChecksum(append(pseudo, segment...))
}

package layers

// ARP constants (RFC 826) for the Ethernet/IPv4 binding.
const (
	ARPHardwareEthernet uint16 = 1
	ARPProtocolIPv4     uint16 = 0x0800

	ARPRequest uint16 = 1
	ARPReply   uint16 = 2
)

// ARPPacket is the 28-byte ARP packet for Ethernet hardware and IPv4
// protocol addresses (RFC 826). The address length fields are validated
// during decode, so a packet advertising other address sizes is rejected
// rather than misparsed.
type ARPPacket struct {
	HardwareType uint16 `bin.validate:"eq=1"`
	ProtocolType uint16
	HardwareLen  uint8  `bin.validate:"eq=6"`
	ProtocolLen  uint8  `bin.validate:"eq=4"`
	Operation    uint16 `bin.validate:"min=1,max=2"`
	SenderHWAddr [6]byte
	SenderIPAddr [4]byte
	TargetHWAddr [6]byte
	TargetIPAddr [4]byte
}

// ARPPacketSize is the packet width in bytes.
const ARPPacketSize = 28

// NewARPRequest builds a who-has request for targetIP, sent from the given
// hardware and protocol addresses. The target hardware address is zero, to
// be filled by the responder.
func NewARPRequest(senderHW [6]byte, senderIP, targetIP [4]byte) ARPPacket {
	return ARPPacket{
		HardwareType: ARPHardwareEthernet,
		ProtocolType: ARPProtocolIPv4,
		HardwareLen:  6,
		ProtocolLen:  4,
		Operation:    ARPRequest,
		SenderHWAddr: senderHW,
		SenderIPAddr: senderIP,
		TargetIPAddr: targetIP,
	}
}

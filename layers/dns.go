package layers

import (
	"errors"
	"strings"
)

// DNS opcodes and response codes (RFC 1035, section 4.1.1).
const (
	DNSOpcodeQuery  uint8 = 0
	DNSOpcodeIQuery uint8 = 1
	DNSOpcodeStatus uint8 = 2

	DNSRCodeNoError  uint8 = 0
	DNSRCodeFormErr  uint8 = 1
	DNSRCodeServFail uint8 = 2
	DNSRCodeNXDomain uint8 = 3
)

// DNS question types and classes used with AppendName-built questions.
const (
	DNSTypeA   uint16 = 1
	DNSTypeNS  uint16 = 2
	DNSTypePTR uint16 = 12
	DNSTypeMX  uint16 = 15
	DNSClassIN uint16 = 1
)

// DNSHeader is the 12-byte DNS message header (RFC 1035, section 4.1.1),
// with the flags word split into its bit fields. Message holds the encoded
// question and resource record sections; build names with AppendName and
// read them back with DecodeName.
type DNSHeader struct {
	ID      uint16
	QR      uint8 `bin.bits:"1"`
	Opcode  uint8 `bin.bits:"4"`
	AA      uint8 `bin.bits:"1"`
	TC      uint8 `bin.bits:"1"`
	RD      uint8 `bin.bits:"1"`
	RA      uint8 `bin.bits:"1"`
	Z       uint8 `bin.bits:"3"`
	RCode   uint8 `bin.bits:"4"`
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
	Message []byte
}

// DNSHeaderSize is the fixed header width in bytes.
const DNSHeaderSize = 12

// Name codec errors.
var (
	ErrNameTooLong        = errors.New("dns name exceeds 255 octets")
	ErrLabelTooLong       = errors.New("dns label exceeds 63 octets")
	ErrNameTruncated      = errors.New("dns name extends past buffer")
	ErrCompressionPointer = errors.New("dns compression pointers not supported")
)

const (
	maxNameLen  = 255
	maxLabelLen = 63
)

// AppendName appends a domain name to dst in DNS label format: each
// dot-separated label prefixed with its length, terminated by a zero octet.
func AppendName(dst []byte, name string) ([]byte, error) {
	if len(name) > maxNameLen-1 {
		return nil, ErrNameTooLong
	}
	name = strings.TrimSuffix(name, ".")
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			if len(label) > maxLabelLen {
				return nil, ErrLabelTooLong
			}
			dst = append(dst, byte(len(label)))
			dst = append(dst, label...)
		}
	}
	return append(dst, 0), nil
}

// DecodeName reads a label-format name starting at off and returns the name
// and the offset just past it. Compression pointers (RFC 1035 section
// 4.1.4) are rejected rather than followed: chasing pointers in untrusted
// data is a decompression loop risk, and the shipped encoder never emits
// them.
func DecodeName(data []byte, off int) (string, int, error) {
	var b strings.Builder
	for {
		if off >= len(data) {
			return "", 0, ErrNameTruncated
		}
		n := int(data[off])
		if n == 0 {
			off++
			return b.String(), off, nil
		}
		if n&0xC0 != 0 {
			return "", 0, ErrCompressionPointer
		}
		off++
		if off+n > len(data) {
			return "", 0, ErrNameTruncated
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		if b.Len()+n > maxNameLen {
			return "", 0, ErrNameTooLong
		}
		b.Write(data[off : off+n])
		off += n
	}
}

// NewDNSQuery builds a recursive query header for a single question. The
// caller encodes the question into Message with AppendName plus the type
// and class words.
func NewDNSQuery(id uint16, message []byte) DNSHeader {
	return DNSHeader{
		ID:      id,
		Opcode:  DNSOpcodeQuery,
		RD:      1,
		QDCount: 1,
		Message: message,
	}
}

package binpack

// InternetChecksum computes the RFC 1071 checksum over data: the one's
// complement of the one's complement sum of the data taken as big-endian
// 16-bit words. Odd-length data is padded with a single zero byte for the
// computation only.
//
// A buffer that already contains its correct checksum sums to zero, which
// is how receivers verify it.
func InternetChecksum(data []byte) uint16 {
	// A 64-bit accumulator cannot overflow below the buffer size limit, so
	// folding can wait until the end.
	var sum uint64

	n := len(data) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint64(data[i])<<8 | uint64(data[i+1])
	}
	if len(data)%2 == 1 {
		sum += uint64(data[len(data)-1]) << 8
	}

	// Fold carries back into 16 bits until none remain.
	for sum > 0xFFFF {
		sum = (sum >> 16) + (sum & 0xFFFF)
	}

	return ^uint16(sum)
}

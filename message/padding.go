package message

import "encoding/binary"

// encodePadded lays out content || signature || sig_len(uint16) || 0x01 ||
// zero-padding, the framing encrypted as an MLSCiphertext's payload.
// padTo pads the result to at least that many bytes (zero to disable);
// it exists so implementations can round ciphertext lengths up to a
// fixed bucket and blunt length-based traffic analysis.
func encodePadded(content, signature []byte, padTo int) []byte {
	marker := make([]byte, 3)
	binary.BigEndian.PutUint16(marker[:2], uint16(len(signature)))
	marker[2] = 0x01

	total := len(content) + len(signature) + len(marker)
	pad := 0
	if total < padTo {
		pad = padTo - total
	}

	out := make([]byte, 0, total+pad)
	out = append(out, content...)
	out = append(out, signature...)
	out = append(out, marker...)
	out = append(out, make([]byte, pad)...)
	return out
}

// decodePadded reverses encodePadded: it scans from the tail over zero
// bytes to the 0x01 marker, reads the preceding two octets as sig_len,
// then splits the remainder into signature and content.
func decodePadded(data []byte) (content, signature []byte, err error) {
	i := len(data) - 1
	for i >= 0 && data[i] == 0x00 {
		i--
	}
	if i < 0 || data[i] != 0x01 {
		return nil, nil, ErrProtocol
	}

	if i < 2 {
		return nil, nil, ErrProtocol
	}
	sigLen := int(binary.BigEndian.Uint16(data[i-2 : i]))

	sigEnd := i - 2
	sigStart := sigEnd - sigLen
	if sigLen < 0 || sigStart < 0 || sigStart > sigEnd {
		return nil, nil, ErrProtocol
	}

	signature = data[sigStart:sigEnd]
	content = data[:sigStart]
	return content, signature, nil
}

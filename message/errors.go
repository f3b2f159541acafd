package message

import "errors"

// ErrProtocol covers malformed wire framing: a missing padding marker, a
// sig_len that runs past the start of the buffer, or a truncated record.
var ErrProtocol = errors.New("message: malformed content framing")

// ErrWrongEpoch is returned when a ciphertext's group id or epoch doesn't
// match the key material it's being opened against.
var ErrWrongEpoch = errors.New("message: ciphertext not from this group/epoch")

package ratchettree

import "errors"

// ErrMissingNode is returned when decrypting a direct path finds no
// resolution member whose private key the receiver holds.
var ErrMissingNode = errors.New("ratchettree: no private key available to decrypt direct path")

// ErrIncompatibleNodes is returned when a re-derived public key disagrees
// with the one encoded in a direct path.
var ErrIncompatibleNodes = errors.New("ratchettree: incompatible nodes")

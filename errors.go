// Package mls is the group state machine: GroupContext, the signed
// Welcome/GroupInfo joiners bootstrap from, and the State object whose
// Init/Add/Update/Remove/Handle transitions each return a fresh immutable
// State rather than mutating in place.
package mls

import "errors"

// Error kinds surfaced by the state machine. Names are descriptive, not a
// type taxonomy -- callers distinguish failures with errors.Is against
// these sentinels rather than a type switch.
var (
	ErrNotImplemented    = errors.New("mls: suite or feature not supported")
	ErrInvalidParameter  = errors.New("mls: invalid parameter")
	ErrInvalidIndex      = errors.New("mls: tree index out of range")
	ErrInvalidPath       = errors.New("mls: direct path does not match the tree")
	ErrIncompatibleNodes = errors.New("mls: post-merge re-derivation disagrees with transmitted keys")
	ErrMissingNode       = errors.New("mls: required private key not held")
	ErrMissingState      = errors.New("mls: prior epoch state not available")
	ErrInvalidMessageType = errors.New("mls: unknown handshake operation")
	ErrProtocol          = errors.New("mls: protocol rule violated")
	ErrInvalidTLSSyntax  = errors.New("mls: codec decoding failure")
	ErrWrongEpoch        = errors.New("mls: handshake message not from this group/epoch")
)

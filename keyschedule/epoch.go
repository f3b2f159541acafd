// Package keyschedule derives the per-epoch secret cascade and the
// per-leaf, per-generation Application Key Chain from it.
package keyschedule

import (
	mlscrypto "github.com/sylph01/mlspp/crypto"
)

// EpochSecrets is the immutable set of secrets derived at one epoch
// transition. The cascade follows the group state machine's
// direct-operation model: everything that isn't the application key chain
// rides on application_secret and confirmation_key alone, with no separate
// handshake or exporter secret.
type EpochSecrets struct {
	Suite             mlscrypto.CipherSuite
	EpochSecret       []byte
	ApplicationSecret []byte
	ConfirmationKey   []byte
	InitSecret        []byte
}

// Next derives the epoch secret cascade for one epoch transition:
//
//	epoch_secret        = HKDF-Extract(prev_init_secret, update_secret)
//	application_secret   = Derive-Secret(epoch_secret, "app", group_context)
//	confirmation_key      = Derive-Secret(epoch_secret, "confirm", group_context)
//	init_secret          = Derive-Secret(epoch_secret, "init", group_context)
func Next(suite mlscrypto.CipherSuite, prevInitSecret, updateSecret, groupContext []byte) EpochSecrets {
	epochSecret := suite.HkdfExtract(prevInitSecret, updateSecret)

	return EpochSecrets{
		Suite:             suite,
		EpochSecret:       epochSecret,
		ApplicationSecret: suite.DeriveSecret(epochSecret, "app", groupContext),
		ConfirmationKey:   suite.DeriveSecret(epochSecret, "confirm", groupContext),
		InitSecret:        suite.DeriveSecret(epochSecret, "init", groupContext),
	}
}

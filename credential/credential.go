// Package credential binds identities to signature keys, and packages the
// per-cipher-suite HPKE keys a prospective member advertises to a group
// (ClientInitKey). Both are signed structures: forging one requires the
// identity's own signature key.
package credential

import (
	"bytes"
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
)

// BasicCredential binds an opaque identity to a signature scheme and
// public key. It is the only credential type this module issues: nothing
// in this group state machine authenticates identities via X.509 chains,
// so no certificate credential variant exists.
type BasicCredential struct {
	Identity  []byte `tls:"head=2"`
	Scheme    mlscrypto.SignatureScheme
	PublicKey mlscrypto.SignaturePublicKey
}

// Credential optionally carries its signature private key, for the case
// where it's held by its own owner rather than observed on the wire.
type Credential struct {
	Basic      BasicCredential
	PrivateKey *mlscrypto.SignaturePrivateKey `tls:"omit"`
}

// NewBasicCredential generates a fresh signature key pair and wraps it in
// a self-held Credential for identity.
func NewBasicCredential(identity []byte, scheme mlscrypto.SignatureScheme) (Credential, error) {
	priv, err := mlscrypto.GenerateSignatureKeyPair(scheme)
	if err != nil {
		return Credential{}, fmt.Errorf("credential: generating signature key: %w", err)
	}

	return Credential{
		Basic: BasicCredential{
			Identity:  identity,
			Scheme:    scheme,
			PublicKey: priv.Public,
		},
		PrivateKey: &priv,
	}, nil
}

// NewBasicCredentialFromSeed is NewBasicCredential with the signature key
// pair derived deterministically from seed instead of the host RNG -- the
// form test vectors use so a credential (and everything hashed over it) is
// reproducible across runs.
func NewBasicCredentialFromSeed(identity []byte, scheme mlscrypto.SignatureScheme, seed []byte) (Credential, error) {
	priv, err := mlscrypto.DeriveSignatureKeyPair(scheme, seed)
	if err != nil {
		return Credential{}, fmt.Errorf("credential: deriving signature key: %w", err)
	}

	return Credential{
		Basic: BasicCredential{
			Identity:  identity,
			Scheme:    scheme,
			PublicKey: priv.Public,
		},
		PrivateKey: &priv,
	}, nil
}

func (c Credential) Identity() []byte {
	return c.Basic.Identity
}

func (c Credential) Scheme() mlscrypto.SignatureScheme {
	return c.Basic.Scheme
}

func (c Credential) PublicKey() mlscrypto.SignaturePublicKey {
	return c.Basic.PublicKey
}

// Sign signs msg with the credential's own private key. Returns an error if
// this Credential carries no private key, as one observed on the wire does.
func (c Credential) Sign(msg []byte) ([]byte, error) {
	if c.PrivateKey == nil {
		return nil, fmt.Errorf("credential: no private key available to sign with")
	}
	return c.PrivateKey.Sign(msg)
}

func (c Credential) Verify(msg, sig []byte) bool {
	return c.Basic.PublicKey.Verify(msg, sig)
}

func (c Credential) Equals(other Credential) bool {
	return bytes.Equal(c.Basic.Identity, other.Basic.Identity) &&
		c.Basic.Scheme == other.Basic.Scheme &&
		bytes.Equal(c.Basic.PublicKey.Data, other.Basic.PublicKey.Data)
}

// Public strips the private key, producing the form that goes out over
// the wire or gets stored in a ratchet tree leaf.
func (c Credential) Public() Credential {
	return Credential{Basic: c.Basic}
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// newAEAD builds the suite's AEAD, keyed, ready for Seal/Open. Both arms
// return the stdlib cipher.AEAD interface so callers never branch on suite.
func (cs CipherSuite) newAEAD(key []byte) (cipher.AEAD, error) {
	switch cs {
	case P256_SHA256_AES128GCM, P521_SHA512_AES256GCM, X25519_SHA256_AES128GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("crypto: AES key setup: %w", err)
		}
		return cipher.NewGCM(block)
	case X25519_SHA256_CHACHA20POLY1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("crypto: no AEAD registered for suite %s", cs)
	}
}

// Seal AEAD-encrypts pt under key/nonce with aad as additional data.
func (cs CipherSuite) Seal(key, nonce, pt, aad []byte) ([]byte, error) {
	aead, err := cs.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("crypto: bad nonce size %d, want %d", len(nonce), aead.NonceSize())
	}
	return aead.Seal(nil, nonce, pt, aad), nil
}

// Open AEAD-decrypts ct under key/nonce, verifying aad as additional data.
func (cs CipherSuite) Open(key, nonce, ct, aad []byte) ([]byte, error) {
	aead, err := cs.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("crypto: bad nonce size %d, want %d", len(nonce), aead.NonceSize())
	}
	return aead.Open(nil, nonce, ct, aad)
}

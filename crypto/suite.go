// Package crypto is the cipher-suite facade: every primitive the rest of
// this module touches (HPKE, AEAD, digests, HKDF) is reached through a
// CipherSuite value rather than imported directly, so a new suite is one
// table entry instead of a sweep through the codebase.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/cisco/go-hpke"
	syntax "github.com/sylph01/mlspp/syntax"
)

type CipherSuite uint16

const (
	P256_SHA256_AES128GCM          CipherSuite = 0x0001
	P521_SHA512_AES256GCM          CipherSuite = 0x0002
	X25519_SHA256_AES128GCM        CipherSuite = 0x0003
	X25519_SHA256_CHACHA20POLY1305 CipherSuite = 0x0004
)

func (cs CipherSuite) String() string {
	switch cs {
	case P256_SHA256_AES128GCM:
		return "P256_SHA256_AES128GCM"
	case P521_SHA512_AES256GCM:
		return "P521_SHA512_AES256GCM"
	case X25519_SHA256_AES128GCM:
		return "X25519_SHA256_AES128GCM"
	case X25519_SHA256_CHACHA20POLY1305:
		return "X25519_SHA256_CHACHA20POLY1305"
	default:
		return "UNKNOWN_SUITE"
	}
}

// Constants mirrors the per-suite sizes the rest of the module needs:
// the digest's output size (Nh), the AEAD's key size and nonce size.
type Constants struct {
	SecretSize int // Nh, the hash output size used throughout the key schedule
	KeySize    int
	NonceSize  int
}

type suiteParams struct {
	kem       hpke.KEMID
	kdf       hpke.KDFID
	aead      hpke.AEADID
	newDigest func() hash.Hash
	constants Constants
}

var suiteTable = map[CipherSuite]suiteParams{
	P256_SHA256_AES128GCM: {
		kem: hpke.DHKEM_P256, kdf: hpke.KDF_HKDF_SHA256, aead: hpke.AEAD_AESGCM128,
		newDigest: sha256.New,
		constants: Constants{SecretSize: 32, KeySize: 16, NonceSize: 12},
	},
	P521_SHA512_AES256GCM: {
		kem: hpke.DHKEM_P521, kdf: hpke.KDF_HKDF_SHA512, aead: hpke.AEAD_AESGCM256,
		newDigest: sha512.New,
		constants: Constants{SecretSize: 64, KeySize: 32, NonceSize: 12},
	},
	X25519_SHA256_AES128GCM: {
		kem: hpke.DHKEM_X25519, kdf: hpke.KDF_HKDF_SHA256, aead: hpke.AEAD_AESGCM128,
		newDigest: sha256.New,
		constants: Constants{SecretSize: 32, KeySize: 16, NonceSize: 12},
	},
	X25519_SHA256_CHACHA20POLY1305: {
		kem: hpke.DHKEM_X25519, kdf: hpke.KDF_HKDF_SHA256, aead: hpke.AEAD_CHACHA20POLY1305,
		newDigest: sha256.New,
		constants: Constants{SecretSize: 32, KeySize: 32, NonceSize: 12},
	},
}

func (cs CipherSuite) params() suiteParams {
	p, ok := suiteTable[cs]
	if !ok {
		panic("crypto: unsupported cipher suite")
	}
	return p
}

func (cs CipherSuite) Constants() Constants {
	return cs.params().constants
}

func (cs CipherSuite) newDigest() hash.Hash {
	return cs.params().newDigest()
}

// Digest is a one-shot Hash(data) using the suite's hash algorithm.
func (cs CipherSuite) Digest(data []byte) []byte {
	h := cs.newDigest()
	h.Write(data)
	return h.Sum(nil)
}

func (cs CipherSuite) newHMAC(key []byte) hash.Hash {
	return hmac.New(cs.params().newDigest, key)
}

// HMAC is a one-shot HMAC(key, data) using the suite's hash algorithm, the
// primitive behind an MLSPlaintext's confirmation tag.
func (cs CipherSuite) HMAC(key, data []byte) []byte {
	mac := cs.newHMAC(key)
	mac.Write(data)
	return mac.Sum(nil)
}

// zero returns an all-zero buffer the size of the suite's secret.
func (cs CipherSuite) zero() []byte {
	return make([]byte, cs.Constants().SecretSize)
}

// HkdfExtract is RFC 5869 HKDF-Extract keyed by the suite's hash.
func (cs CipherSuite) HkdfExtract(salt, ikm []byte) []byte {
	if salt == nil {
		salt = make([]byte, cs.Constants().SecretSize)
	}
	mac := cs.newHMAC(salt)
	mac.Write(ikm)
	return mac.Sum(nil)
}

// hkdfExpand is RFC 5869 HKDF-Expand, producing exactly length bytes.
func (cs CipherSuite) hkdfExpand(secret, info []byte, length int) []byte {
	out := make([]byte, 0, length)
	var prev []byte
	for i := byte(1); len(out) < length; i++ {
		mac := cs.newHMAC(secret)
		mac.Write(prev)
		mac.Write(info)
		mac.Write([]byte{i})
		prev = mac.Sum(nil)
		out = append(out, prev...)
	}
	return out[:length]
}

// hkdfLabel is the TLS-encoded {length, "mls10 "+label, context} triple fed
// to HKDF-Expand by hkdfExpandLabel.
type hkdfLabel struct {
	Length  uint16
	Label   []byte `tls:"head=1"`
	Context []byte `tls:"head=4"`
}

// HkdfExpandLabel implements Derive-Secret's building block:
// HKDF-Expand(secret, TLS-encode({length, "mls10 "+label, context}), length).
func (cs CipherSuite) HkdfExpandLabel(secret []byte, label string, context []byte, length int) []byte {
	info := hkdfLabel{
		Length:  uint16(length),
		Label:   []byte("mls10 " + label),
		Context: context,
	}
	enc, err := syntax.Marshal(info)
	if err != nil {
		panic(err)
	}
	return cs.hkdfExpand(secret, enc, length)
}

// DeriveSecret is Derive-Secret(secret, label, context) =
// HKDF-Expand-Label(secret, label, Hash(context), Hash.Nh).
func (cs CipherSuite) DeriveSecret(secret []byte, label string, context []byte) []byte {
	return cs.HkdfExpandLabel(secret, label, cs.Digest(context), cs.Constants().SecretSize)
}

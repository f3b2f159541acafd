package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cisco/go-hpke"
)

// HPKEPublicKey and HPKEPrivateKey wrap the KEM key types go-hpke hands
// back, keeping the raw encoding alongside so the wire codec (package
// syntax) never has to know which KEM produced them.
type HPKEPublicKey struct {
	raw []byte
}

type HPKEPrivateKey struct {
	raw       []byte
	PublicKey HPKEPublicKey
}

// HPKECiphertext is the encrypted-path-secret wire format: an ephemeral KEM
// encapsulation plus the AEAD-sealed payload.
type HPKECiphertext struct {
	KEMOutput  []byte `tls:"head=2"`
	Ciphertext []byte `tls:"head=4"`
}

// Raw returns the serialized KEM public key bytes, for equality checks
// that don't want to go through the TLS codec.
func (pub HPKEPublicKey) Raw() []byte {
	return pub.raw
}

func (pub HPKEPublicKey) MarshalTLS() ([]byte, error) {
	out := make([]byte, 2+len(pub.raw))
	out[0] = byte(len(pub.raw) >> 8)
	out[1] = byte(len(pub.raw))
	copy(out[2:], pub.raw)
	return out, nil
}

func (pub *HPKEPublicKey) UnmarshalTLS(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("crypto: truncated HPKEPublicKey")
	}
	n := int(data[0])<<8 | int(data[1])
	if len(data) < 2+n {
		return 0, fmt.Errorf("crypto: truncated HPKEPublicKey body")
	}
	pub.raw = append([]byte{}, data[2:2+n]...)
	return 2 + n, nil
}

func (priv HPKEPrivateKey) MarshalTLS() ([]byte, error) {
	out := make([]byte, 2+len(priv.raw))
	out[0] = byte(len(priv.raw) >> 8)
	out[1] = byte(len(priv.raw))
	copy(out[2:], priv.raw)
	return out, nil
}

func (priv *HPKEPrivateKey) UnmarshalTLS(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("crypto: truncated HPKEPrivateKey")
	}
	n := int(data[0])<<8 | int(data[1])
	if len(data) < 2+n {
		return 0, fmt.Errorf("crypto: truncated HPKEPrivateKey body")
	}
	priv.raw = append([]byte{}, data[2:2+n]...)
	return 2 + n, nil
}

// hpkeSuite resolves the go-hpke CipherSuite object for cs.
func (cs CipherSuite) hpkeSuite() hpke.CipherSuite {
	p := cs.params()
	suite, err := hpke.AssembleCipherSuite(p.kem, p.kdf, p.aead)
	if err != nil {
		panic(fmt.Errorf("crypto: unsupported HPKE suite: %w", err))
	}
	return suite
}

// HPKE exposes the single-shot operations the ratchet tree and Welcome
// encryption need: Encrypt/Decrypt wrap a path secret or group info to/from
// one recipient, Derive turns a seed into a KEM key pair.
type HPKE struct {
	cs   CipherSuite
	rand io.Reader
}

// HPKE returns the suite's single-shot HPKE operations, drawing ephemeral
// key material from the host RNG.
func (cs CipherSuite) HPKE() HPKE {
	return HPKE{cs: cs, rand: rand.Reader}
}

// HPKEWithRand substitutes the randomness source behind Generate and
// Encrypt. Every ephemeral the protocol produces flows through the reader
// installed here, so a seeded reader makes an encryption run
// byte-reproducible under equal inputs.
func (cs CipherSuite) HPKEWithRand(r io.Reader) HPKE {
	return HPKE{cs: cs, rand: r}
}

// Generate produces a fresh KEM key pair from the configured randomness
// source.
func (h HPKE) Generate() (HPKEPrivateKey, error) {
	suite := h.cs.hpkeSuite()
	ikm := make([]byte, suite.KEM.PrivateKeySize())
	if _, err := io.ReadFull(h.rand, ikm); err != nil {
		return HPKEPrivateKey{}, fmt.Errorf("crypto: HPKE key generation: %w", err)
	}
	skR, pkR, err := suite.KEM.DeriveKeyPair(ikm)
	if err != nil {
		return HPKEPrivateKey{}, fmt.Errorf("crypto: HPKE key generation: %w", err)
	}
	return h.wrap(skR, pkR), nil
}

// Derive deterministically derives a KEM key pair from a seed, the
// operation behind the ratchet tree's Derive-Key-Pair(secret).
func (h HPKE) Derive(seed []byte) (HPKEPrivateKey, error) {
	suite := h.cs.hpkeSuite()
	skR, pkR, err := suite.KEM.DeriveKeyPair(seed)
	if err != nil {
		return HPKEPrivateKey{}, fmt.Errorf("crypto: HPKE key derivation: %w", err)
	}
	return h.wrap(skR, pkR), nil
}

func (h HPKE) wrap(skR hpke.KEMPrivateKey, pkR hpke.KEMPublicKey) HPKEPrivateKey {
	suite := h.cs.hpkeSuite()
	pub := HPKEPublicKey{raw: suite.KEM.SerializePublicKey(pkR)}
	return HPKEPrivateKey{raw: suite.KEM.SerializePrivateKey(skR), PublicKey: pub}
}

// Encrypt single-shot-encrypts pt to pub, binding context as the AEAD
// additional data. Used to wrap path secrets to a copath resolution member,
// and to wrap a GroupInfo to a joiner's init key.
func (h HPKE) Encrypt(pub HPKEPublicKey, context, pt []byte) (HPKECiphertext, error) {
	suite := h.cs.hpkeSuite()
	pkR, err := suite.KEM.DeserializePublicKey(pub.raw)
	if err != nil {
		return HPKECiphertext{}, fmt.Errorf("crypto: deserializing HPKE public key: %w", err)
	}

	enc, ctx, err := hpke.SetupBaseS(suite, h.rand, pkR, nil)
	if err != nil {
		return HPKECiphertext{}, fmt.Errorf("crypto: HPKE setup: %w", err)
	}

	ct := ctx.Seal(context, pt)
	return HPKECiphertext{KEMOutput: enc, Ciphertext: ct}, nil
}

// Decrypt reverses Encrypt under the matching private key.
func (h HPKE) Decrypt(priv HPKEPrivateKey, context []byte, ct HPKECiphertext) ([]byte, error) {
	suite := h.cs.hpkeSuite()
	skR, err := suite.KEM.DeserializePrivateKey(priv.raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: deserializing HPKE private key: %w", err)
	}

	ctx, err := hpke.SetupBaseR(suite, skR, ct.KEMOutput, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: HPKE setup: %w", err)
	}

	pt, err := ctx.Open(context, ct.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("crypto: HPKE decryption failed: %w", err)
	}
	return pt, nil
}

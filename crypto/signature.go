package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"golang.org/x/crypto/ed25519"
)

// SignatureScheme identifies the credential signature algorithm. Unlike
// CipherSuite this is orthogonal to the group's HPKE/AEAD suite: two
// members of the same group may sign with different schemes, since
// signatures are verified member-by-member against each Credential.
type SignatureScheme uint16

const (
	ECDSA_SECP256R1_SHA256 SignatureScheme = 0x0403
	ECDSA_SECP521R1_SHA512 SignatureScheme = 0x0603
	Ed25519Scheme          SignatureScheme = 0x0807
	Ed448Scheme            SignatureScheme = 0x0808
)

func (s SignatureScheme) String() string {
	switch s {
	case ECDSA_SECP256R1_SHA256:
		return "ecdsa_secp256r1_sha256"
	case ECDSA_SECP521R1_SHA512:
		return "ecdsa_secp521r1_sha512"
	case Ed25519Scheme:
		return "ed25519"
	case Ed448Scheme:
		return "ed448"
	default:
		return "unknown_scheme"
	}
}

// SignaturePublicKey is an opaque, scheme-tagged verification key.
type SignaturePublicKey struct {
	Scheme SignatureScheme
	Data   []byte `tls:"head=2"`
}

// SignaturePrivateKey is a scheme-tagged signing key together with its
// public half, generated once and carried for the credential's lifetime.
type SignaturePrivateKey struct {
	Scheme SignatureScheme
	data   []byte
	Public SignaturePublicKey
}

// GenerateSignatureKeyPair creates a fresh signing key pair for scheme.
func GenerateSignatureKeyPair(scheme SignatureScheme) (SignaturePrivateKey, error) {
	switch scheme {
	case Ed25519Scheme:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return SignaturePrivateKey{}, fmt.Errorf("crypto: ed25519 key generation: %w", err)
		}
		return SignaturePrivateKey{
			Scheme: scheme,
			data:   priv,
			Public: SignaturePublicKey{Scheme: scheme, Data: pub},
		}, nil

	case Ed448Scheme:
		pub, priv, err := ed448.GenerateKey(rand.Reader)
		if err != nil {
			return SignaturePrivateKey{}, fmt.Errorf("crypto: ed448 key generation: %w", err)
		}
		return SignaturePrivateKey{
			Scheme: scheme,
			data:   priv,
			Public: SignaturePublicKey{Scheme: scheme, Data: pub},
		}, nil

	case ECDSA_SECP256R1_SHA256, ECDSA_SECP521R1_SHA512:
		curve := ecdsaCurve(scheme)
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return SignaturePrivateKey{}, fmt.Errorf("crypto: ecdsa key generation: %w", err)
		}
		pubBytes := elliptic.Marshal(curve, priv.PublicKey.X, priv.PublicKey.Y)
		privBytes := priv.D.Bytes()
		return SignaturePrivateKey{
			Scheme: scheme,
			data:   privBytes,
			Public: SignaturePublicKey{Scheme: scheme, Data: pubBytes},
		}, nil

	default:
		return SignaturePrivateKey{}, fmt.Errorf("crypto: unsupported signature scheme %s", scheme)
	}
}

// DeriveSignatureKeyPair deterministically derives a signing key pair for
// scheme from seed. Only the Ed* schemes support this; ECDSA key generation
// is inherently randomized, so fixtures that need reproducible credentials
// must stick to a deterministic scheme.
func DeriveSignatureKeyPair(scheme SignatureScheme, seed []byte) (SignaturePrivateKey, error) {
	switch scheme {
	case Ed25519Scheme:
		if len(seed) != ed25519.SeedSize {
			return SignaturePrivateKey{}, fmt.Errorf("crypto: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv := ed25519.NewKeyFromSeed(seed)
		pub := priv.Public().(ed25519.PublicKey)
		return SignaturePrivateKey{
			Scheme: scheme,
			data:   priv,
			Public: SignaturePublicKey{Scheme: scheme, Data: pub},
		}, nil

	case Ed448Scheme:
		if len(seed) != ed448.SeedSize {
			return SignaturePrivateKey{}, fmt.Errorf("crypto: ed448 seed must be %d bytes, got %d", ed448.SeedSize, len(seed))
		}
		priv := ed448.NewKeyFromSeed(seed)
		pub := priv.Public().(ed448.PublicKey)
		return SignaturePrivateKey{
			Scheme: scheme,
			data:   priv,
			Public: SignaturePublicKey{Scheme: scheme, Data: pub},
		}, nil

	default:
		return SignaturePrivateKey{}, fmt.Errorf("crypto: scheme %s has no deterministic key derivation", scheme)
	}
}

func ecdsaCurve(scheme SignatureScheme) elliptic.Curve {
	if scheme == ECDSA_SECP521R1_SHA512 {
		return elliptic.P521()
	}
	return elliptic.P256()
}

func ecdsaHash(scheme SignatureScheme, msg []byte) []byte {
	if scheme == ECDSA_SECP521R1_SHA512 {
		h := sha512.Sum512(msg)
		return h[:]
	}
	h := sha256.Sum256(msg)
	return h[:]
}

// Sign produces a signature over msg under priv's scheme. Ed25519 and
// Ed448 are deterministic; ECDSA is not, per RFC 6979's absence here --
// callers that need replayable test vectors must stick to the Ed*
// schemes, matching the scheme note in the suite table.
func (priv SignaturePrivateKey) Sign(msg []byte) ([]byte, error) {
	switch priv.Scheme {
	case Ed25519Scheme:
		return ed25519.Sign(ed25519.PrivateKey(priv.data), msg), nil

	case Ed448Scheme:
		return ed448.Sign(ed448.PrivateKey(priv.data), msg, ""), nil

	case ECDSA_SECP256R1_SHA256, ECDSA_SECP521R1_SHA512:
		curve := ecdsaCurve(priv.Scheme)
		d := new(big.Int).SetBytes(priv.data)
		key := &ecdsa.PrivateKey{D: d}
		key.PublicKey.Curve = curve
		key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(priv.data)

		r, s, err := ecdsa.Sign(rand.Reader, key, ecdsaHash(priv.Scheme, msg))
		if err != nil {
			return nil, fmt.Errorf("crypto: ecdsa signing: %w", err)
		}
		return asn1ECDSASignature(r, s), nil

	default:
		return nil, fmt.Errorf("crypto: unsupported signature scheme %s", priv.Scheme)
	}
}

// Verify checks sig over msg under pub's scheme.
func (pub SignaturePublicKey) Verify(msg, sig []byte) bool {
	switch pub.Scheme {
	case Ed25519Scheme:
		return ed25519.Verify(ed25519.PublicKey(pub.Data), msg, sig)

	case Ed448Scheme:
		return ed448.Verify(ed448.PublicKey(pub.Data), msg, sig, "")

	case ECDSA_SECP256R1_SHA256, ECDSA_SECP521R1_SHA512:
		curve := ecdsaCurve(pub.Scheme)
		x, y := elliptic.Unmarshal(curve, pub.Data)
		if x == nil {
			return false
		}
		key := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
		r, s, err := parseASN1ECDSASignature(sig)
		if err != nil {
			return false
		}
		return ecdsa.Verify(key, ecdsaHash(pub.Scheme, msg), r, s)

	default:
		return false
	}
}

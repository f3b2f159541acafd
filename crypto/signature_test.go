package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTripPerScheme(t *testing.T) {
	schemes := []SignatureScheme{Ed25519Scheme, Ed448Scheme, ECDSA_SECP256R1_SHA256, ECDSA_SECP521R1_SHA512}
	msg := []byte("mls transcript")

	for _, scheme := range schemes {
		priv, err := GenerateSignatureKeyPair(scheme)
		require.NoError(t, err, scheme.String())

		sig, err := priv.Sign(msg)
		require.NoError(t, err, scheme.String())
		require.True(t, priv.Public.Verify(msg, sig), scheme.String())
		require.False(t, priv.Public.Verify([]byte("tampered"), sig), scheme.String())
	}
}

func TestDeriveSignatureKeyPairIsReproducible(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := DeriveSignatureKeyPair(Ed25519Scheme, seed)
	require.NoError(t, err)
	b, err := DeriveSignatureKeyPair(Ed25519Scheme, seed)
	require.NoError(t, err)
	require.Equal(t, a.Public.Data, b.Public.Data)

	sig, err := a.Sign([]byte("msg"))
	require.NoError(t, err)
	require.True(t, b.Public.Verify([]byte("msg"), sig))

	_, err = DeriveSignatureKeyPair(ECDSA_SECP256R1_SHA256, seed)
	require.Error(t, err)
}

func TestEd25519SignatureIsDeterministic(t *testing.T) {
	priv, err := GenerateSignatureKeyPair(Ed25519Scheme)
	require.NoError(t, err)

	msg := []byte("deterministic")
	a, err := priv.Sign(msg)
	require.NoError(t, err)
	b, err := priv.Sign(msg)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHPKEEncryptDecryptRoundTrip(t *testing.T) {
	suite := X25519_SHA256_AES128GCM
	priv, err := suite.HPKE().Generate()
	require.NoError(t, err)

	context := []byte("node context")
	pt := []byte("a path secret, 32 bytes long....")

	ct, err := suite.HPKE().Encrypt(priv.PublicKey, context, pt)
	require.NoError(t, err)

	got, err := suite.HPKE().Decrypt(priv, context, ct)
	require.NoError(t, err)
	require.Equal(t, pt, got)
}

// countingReader hands out a fixed byte stream, standing in for the seeded
// PRNG a test vector harness would install via HPKEWithRand.
type countingReader struct{ next byte }

func (r *countingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

func TestHPKEEncryptWithSeededRandIsReproducible(t *testing.T) {
	suite := X25519_SHA256_AES128GCM
	priv, err := suite.HPKE().Derive(bytes.Repeat([]byte{0x09}, 32))
	require.NoError(t, err)

	context := []byte("node context")
	pt := []byte("a path secret, 32 bytes long....")

	a, err := suite.HPKEWithRand(&countingReader{}).Encrypt(priv.PublicKey, context, pt)
	require.NoError(t, err)
	b, err := suite.HPKEWithRand(&countingReader{}).Encrypt(priv.PublicKey, context, pt)
	require.NoError(t, err)

	require.Equal(t, a.KEMOutput, b.KEMOutput)
	require.Equal(t, a.Ciphertext, b.Ciphertext)

	got, err := suite.HPKE().Decrypt(priv, context, a)
	require.NoError(t, err)
	require.Equal(t, pt, got)
}

func TestHPKEDeriveIsDeterministic(t *testing.T) {
	suite := X25519_SHA256_AES128GCM
	seed := bytes.Repeat([]byte{0x07}, 32)

	a, err := suite.HPKE().Derive(seed)
	require.NoError(t, err)
	b, err := suite.HPKE().Derive(seed)
	require.NoError(t, err)

	require.Equal(t, a.PublicKey.raw, b.PublicKey.raw)
}

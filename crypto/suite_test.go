package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantsMatchSuiteTable(t *testing.T) {
	cases := []struct {
		suite  CipherSuite
		secret int
		key    int
		nonce  int
	}{
		{P256_SHA256_AES128GCM, 32, 16, 12},
		{P521_SHA512_AES256GCM, 64, 32, 12},
		{X25519_SHA256_AES128GCM, 32, 16, 12},
		{X25519_SHA256_CHACHA20POLY1305, 32, 32, 12},
	}

	for _, c := range cases {
		got := c.suite.Constants()
		require.Equal(t, c.secret, got.SecretSize, c.suite.String())
		require.Equal(t, c.key, got.KeySize, c.suite.String())
		require.Equal(t, c.nonce, got.NonceSize, c.suite.String())
	}
}

func TestHkdfExpandLabelIsDeterministic(t *testing.T) {
	suite := X25519_SHA256_AES128GCM
	secret := bytes.Repeat([]byte{0x01}, suite.Constants().SecretSize)

	a := suite.HkdfExpandLabel(secret, "test", []byte("ctx"), 32)
	b := suite.HkdfExpandLabel(secret, "test", []byte("ctx"), 32)
	require.Equal(t, a, b)

	c := suite.HkdfExpandLabel(secret, "other", []byte("ctx"), 32)
	require.NotEqual(t, a, c)
}

func TestDeriveSecretVariesWithContext(t *testing.T) {
	suite := X25519_SHA256_AES128GCM
	secret := bytes.Repeat([]byte{0x02}, suite.Constants().SecretSize)

	a := suite.DeriveSecret(secret, "app", []byte("one"))
	b := suite.DeriveSecret(secret, "app", []byte("two"))
	require.NotEqual(t, a, b)
}

func TestZeroIsSecretSized(t *testing.T) {
	suite := P521_SHA512_AES256GCM
	require.Len(t, suite.zero(), suite.Constants().SecretSize)
}

func TestAEADRoundTrip(t *testing.T) {
	for _, suite := range []CipherSuite{X25519_SHA256_AES128GCM, X25519_SHA256_CHACHA20POLY1305, P521_SHA512_AES256GCM} {
		key := bytes.Repeat([]byte{0x03}, suite.Constants().KeySize)
		nonce := bytes.Repeat([]byte{0x04}, suite.Constants().NonceSize)

		aead, err := suite.newAEAD(key)
		require.NoError(t, err, suite.String())

		pt := []byte("hello")
		ct := aead.Seal(nil, nonce, pt, []byte("aad"))
		got, err := aead.Open(nil, nonce, ct, []byte("aad"))
		require.NoError(t, err, suite.String())
		require.Equal(t, pt, got, suite.String())
	}
}

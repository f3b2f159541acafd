package credential

import (
	"bytes"
	"testing"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/stretchr/testify/require"
)

func TestBasicCredentialSignVerify(t *testing.T) {
	cred, err := NewBasicCredential([]byte("alice"), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	msg := []byte("group context")
	sig, err := cred.Sign(msg)
	require.NoError(t, err)
	require.True(t, cred.Verify(msg, sig))
	require.False(t, cred.Verify([]byte("different"), sig))
}

func TestPublicStripsPrivateKey(t *testing.T) {
	cred, err := NewBasicCredential([]byte("bob"), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	pub := cred.Public()
	require.Nil(t, pub.PrivateKey)
	require.True(t, pub.Equals(cred))

	_, err = pub.Sign([]byte("anything"))
	require.Error(t, err)
}

func TestExtensionListAddFind(t *testing.T) {
	var el ExtensionList
	require.NoError(t, el.Add(ParentHashExtension{ParentHash: []byte{0x01, 0x02}}))

	var out ParentHashExtension
	found, err := el.Find(&out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{0x01, 0x02}, out.ParentHash)

	var missing ParentHashExtension
	el2 := ExtensionList{}
	found, err = el2.Find(&missing)
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientInitKeySignVerify(t *testing.T) {
	cred, err := NewBasicCredential([]byte("carol"), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	suites := []mlscrypto.CipherSuite{mlscrypto.X25519_SHA256_AES128GCM, mlscrypto.P256_SHA256_AES128GCM}
	cik, err := NewClientInitKey(bytes.Repeat([]byte{0x09}, 32), cred, suites)
	require.NoError(t, err)
	require.True(t, cik.Verify())

	_, ok := cik.InitKeyFor(mlscrypto.X25519_SHA256_AES128GCM)
	require.True(t, ok)

	_, ok = cik.InitKeyFor(mlscrypto.X25519_SHA256_CHACHA20POLY1305)
	require.False(t, ok)
}

// TestClientInitKeyPerSuiteDerivation checks the per-suite expansion of the
// init secret: the same secret always yields the same advertised keys, and
// no two suites end up with related key material.
func TestClientInitKeyPerSuiteDerivation(t *testing.T) {
	cred, err := NewBasicCredential([]byte("dave"), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	initSecret := bytes.Repeat([]byte{0x0a}, 32)
	suites := []mlscrypto.CipherSuite{mlscrypto.X25519_SHA256_AES128GCM, mlscrypto.P256_SHA256_AES128GCM}

	a, err := NewClientInitKey(initSecret, cred, suites)
	require.NoError(t, err)
	b, err := NewClientInitKey(initSecret, cred, suites)
	require.NoError(t, err)

	for i := range suites {
		require.Equal(t, a.InitKeys[i].Raw(), b.InitKeys[i].Raw())
	}
	require.NotEqual(t, a.InitKeys[0].Raw(), a.InitKeys[1].Raw())

	c, err := NewClientInitKey(bytes.Repeat([]byte{0x0b}, 32), cred, suites)
	require.NoError(t, err)
	require.NotEqual(t, a.InitKeys[0].Raw(), c.InitKeys[0].Raw())
}

func TestNegotiatePicksFirstSharedSuiteInOffererOrder(t *testing.T) {
	a := ClientInitKey{CipherSuites: []mlscrypto.CipherSuite{
		mlscrypto.X25519_SHA256_AES128GCM, mlscrypto.P256_SHA256_AES128GCM,
	}}
	b := ClientInitKey{CipherSuites: []mlscrypto.CipherSuite{
		mlscrypto.P256_SHA256_AES128GCM, mlscrypto.X25519_SHA256_AES128GCM,
	}}

	suite, ok := Negotiate(a, b)
	require.True(t, ok)
	require.Equal(t, mlscrypto.X25519_SHA256_AES128GCM, suite)
}

func TestNegotiateEmptyIntersection(t *testing.T) {
	a := ClientInitKey{CipherSuites: []mlscrypto.CipherSuite{mlscrypto.X25519_SHA256_AES128GCM}}
	b := ClientInitKey{CipherSuites: []mlscrypto.CipherSuite{mlscrypto.P521_SHA512_AES256GCM}}

	_, ok := Negotiate(a, b)
	require.False(t, ok)
}

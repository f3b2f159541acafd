package ratchettree

import (
	"bytes"
	"encoding/hex"
	"testing"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/credential"
	"github.com/sylph01/mlspp/treemath"
	"github.com/stretchr/testify/require"
)

func testCredential(t *testing.T, identity string) *credential.Credential {
	t.Helper()
	cred, err := credential.NewBasicCredential([]byte(identity), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)
	return &cred
}

func leafSecret(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestNewFromSecretsMatchesIncrementalBuild(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	secrets := [][]byte{leafSecret(0x00), leafSecret(0x01), leafSecret(0x02), leafSecret(0x03)}
	creds := []*credential.Credential{
		testCredential(t, "a"), testCredential(t, "b"), testCredential(t, "c"), testCredential(t, "d"),
	}

	built, err := NewFromSecrets(suite, secrets, creds)
	require.NoError(t, err)

	incremental := New(suite)
	for i, secret := range secrets {
		priv, err := suite.HPKE().Derive(incremental.nodeStep(secret))
		require.NoError(t, err)
		require.NoError(t, incremental.AddLeaf(treemath.LeafIndex(i), &priv.PublicKey, creds[i]))
		_, err = incremental.SetPath(treemath.LeafIndex(i), secret)
		require.NoError(t, err)
	}

	require.True(t, built.Equals(incremental))
	require.Equal(t, built.RootHash(), incremental.RootHash())
}

func TestEncapDecapAgreeOnUpdateSecret(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	secrets := [][]byte{leafSecret(0x00), leafSecret(0x01), leafSecret(0x02), leafSecret(0x03)}
	creds := []*credential.Credential{
		testCredential(t, "a"), testCredential(t, "b"), testCredential(t, "c"), testCredential(t, "d"),
	}

	sender, err := NewFromSecrets(suite, secrets, creds)
	require.NoError(t, err)
	receiver := sender.clone()

	newLeafSecret := leafSecret(0xff)
	context := []byte("group context")

	path, senderSecret, err := sender.Encap(0, context, newLeafSecret)
	require.NoError(t, err)

	receiverSecret, err := receiver.Decap(0, context, path)
	require.NoError(t, err)

	require.Equal(t, senderSecret, receiverSecret)
	require.Equal(t, sender.RootHash(), receiver.RootHash())
}

// TestPathSecretChainInteropValues pins the update secrets produced as a
// P-256 tree grows from two to four members, against digests computed
// independently of this implementation. The values depend only on the
// HKDF-Expand-Label path-secret schedule, so they stay comparable across
// implementations that share the derivation -- unlike root hashes, which
// also cover credential and key encodings.
func TestPathSecretChainInteropValues(t *testing.T) {
	suite := mlscrypto.P256_SHA256_AES128GCM

	pad := func(b ...byte) []byte {
		out := make([]byte, 32)
		copy(out, b)
		return out
	}
	secrets := [][]byte{
		pad(0x00, 0x01, 0x02, 0x03),
		pad(0x04, 0x05, 0x06, 0x07),
		pad(0x08, 0x09, 0x0a, 0x0b),
		pad(0x0c, 0x0d, 0x0e, 0x0f),
	}
	wantUpdateSecrets := []string{
		"e8de418a07b497953174c71f5ad83d63d90bc68582a9a340c6023fba536455f4",
		"1dbd153c8f2ca387cfc3104b39b0954bbf287bfeb94d2a5bd92e05ff510c2244",
		"ca118da171367f30e5c03e2e651558f55c57fba6319101ccb56f8a34953b25f2",
	}

	tree := New(suite)
	for i, secret := range secrets {
		priv, err := suite.HPKE().Derive(tree.nodeStep(secret))
		require.NoError(t, err)
		require.NoError(t, tree.AddLeaf(treemath.LeafIndex(i), &priv.PublicKey, testCredential(t, string(rune('a'+i)))))

		updateSecret, err := tree.SetPath(treemath.LeafIndex(i), secret)
		require.NoError(t, err)

		// The one-leaf tree's update secret is the leaf secret itself;
		// the pinned chain starts with the pairwise value.
		if i > 0 {
			require.Equal(t, wantUpdateSecrets[i-1], hex.EncodeToString(updateSecret))
		}
	}
}

func TestBlankPathClearsToRoot(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	secrets := [][]byte{leafSecret(0x00), leafSecret(0x01)}
	creds := []*credential.Credential{testCredential(t, "a"), testCredential(t, "b")}

	tree, err := NewFromSecrets(suite, secrets, creds)
	require.NoError(t, err)

	require.NoError(t, tree.BlankPath(0, false))
	require.True(t, tree.occupied(0))

	require.NoError(t, tree.BlankPath(0, true))
	require.False(t, tree.occupied(0))
}

func TestAddLeafBlanksOccupiedAncestors(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	tree := New(suite)

	priv0, err := suite.HPKE().Generate()
	require.NoError(t, err)
	require.NoError(t, tree.AddLeaf(0, &priv0.PublicKey, testCredential(t, "a")))
	_, err = tree.SetPath(0, leafSecret(0x00))
	require.NoError(t, err)

	priv1, err := suite.HPKE().Generate()
	require.NoError(t, err)
	require.NoError(t, tree.AddLeaf(1, &priv1.PublicKey, testCredential(t, "b")))
	_, err = tree.SetPath(1, leafSecret(0x01))
	require.NoError(t, err)

	root := tree.rootIndex()
	require.NotNil(t, tree.Nodes[root].Node)

	priv2, err := suite.HPKE().Generate()
	require.NoError(t, err)
	require.NoError(t, tree.AddLeaf(2, &priv2.PublicKey, testCredential(t, "c")))

	require.Nil(t, tree.Nodes[tree.rootIndex()].Node)
	require.Empty(t, tree.secrets)
}

func TestRootHashStableUnderSerializationRoundTrip(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	secrets := [][]byte{leafSecret(0x00), leafSecret(0x01), leafSecret(0x02)}
	creds := []*credential.Credential{
		testCredential(t, "a"), testCredential(t, "b"), testCredential(t, "c"),
	}

	tree, err := NewFromSecrets(suite, secrets, creds)
	require.NoError(t, err)

	enc, err := tree.MarshalTLS()
	require.NoError(t, err)

	roundTripped := New(suite)
	_, err = roundTripped.UnmarshalTLS(enc)
	require.NoError(t, err)

	require.Equal(t, tree.RootHash(), roundTripped.RootHash())
}

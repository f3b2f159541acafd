package session

import (
	"fmt"
	"testing"

	credential "github.com/sylph01/mlspp/credential"
	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/message"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/stretchr/testify/require"
)

func testSuite() mlscrypto.CipherSuite {
	return mlscrypto.X25519_SHA256_AES128GCM
}

func testCred(t *testing.T, identity string) credential.Credential {
	t.Helper()
	cred, err := credential.NewBasicCredential([]byte(identity), mlscrypto.Ed25519Scheme)
	require.NoError(t, err)
	return cred
}

func testCIK(t *testing.T, cred credential.Credential, suite mlscrypto.CipherSuite, initSeed byte) credential.ClientInitKey {
	t.Helper()
	cik, err := credential.NewClientInitKey(leafSecret(initSeed), cred, []mlscrypto.CipherSuite{suite})
	require.NoError(t, err)
	return cik
}

func leafSecret(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func mustUnmarshalPlaintext(t *testing.T, data []byte) *message.MLSPlaintext {
	t.Helper()
	var pt message.MLSPlaintext
	_, err := mlssyntax.Unmarshal(data, &pt)
	require.NoError(t, err)
	return &pt
}

// TestSessionAddJoinHandleOwnEcho walks the full two-party lifecycle a
// delivery service drives: Alice starts a group, adds Bob, Bob joins from
// the Welcome, and Alice's own broadcast of the Add handshake message comes
// back to her and is recognized as an echo rather than re-applied.
func TestSessionAddJoinHandleOwnEcho(t *testing.T) {
	suite := testSuite()
	alice := testCred(t, "alice")
	bob := testCred(t, "bob")
	bobCIK := testCIK(t, bob, suite, 0x0b)

	aliceSession, err := Start([]byte("group"), suite, leafSecret(0x01), alice)
	require.NoError(t, err)

	welcome, addMsg, err := aliceSession.Add(bobCIK)
	require.NoError(t, err)

	bobSession, err := Join(welcome, mustUnmarshalPlaintext(t, addMsg), bobCIK, bob)
	require.NoError(t, err)

	// Alice's own broadcast comes back to her over the delivery service.
	require.NoError(t, aliceSession.Handle(addMsg))

	ct, err := aliceSession.Protect([]byte("hi bob"))
	require.NoError(t, err)

	plaintext, err := bobSession.Unprotect(ct)
	require.NoError(t, err)
	require.Equal(t, "hi bob", string(plaintext))
}

// TestSessionHandleRejectsTamperedEcho checks that if a delivery service
// substitutes a different message than the one a session actually sent, the
// mismatch is caught instead of silently advancing state.
func TestSessionHandleRejectsTamperedEcho(t *testing.T) {
	suite := testSuite()
	alice := testCred(t, "alice")
	bob := testCred(t, "bob")
	bobCIK := testCIK(t, bob, suite, 0x0b)

	aliceSession, err := Start([]byte("group"), suite, leafSecret(0x01), alice)
	require.NoError(t, err)

	_, addMsg, err := aliceSession.Add(bobCIK)
	require.NoError(t, err)

	tampered := append([]byte{}, addMsg...)
	tampered[len(tampered)-1] ^= 0xFF

	require.Error(t, aliceSession.Handle(tampered))
}

// TestSessionUpdateAndRemovePropagate checks that Bob sees Alice's Update,
// and that once Alice removes him he can no longer follow the group into
// the next epoch.
func TestSessionUpdateAndRemovePropagate(t *testing.T) {
	suite := testSuite()
	alice := testCred(t, "alice")
	bob := testCred(t, "bob")
	bobCIK := testCIK(t, bob, suite, 0x0b)

	aliceSession, err := Start([]byte("group"), suite, leafSecret(0x01), alice)
	require.NoError(t, err)

	welcome, addMsg, err := aliceSession.Add(bobCIK)
	require.NoError(t, err)
	bobSession, err := Join(welcome, mustUnmarshalPlaintext(t, addMsg), bobCIK, bob)
	require.NoError(t, err)
	require.NoError(t, aliceSession.Handle(addMsg))

	updateMsg, err := aliceSession.Update(leafSecret(0x02))
	require.NoError(t, err)
	require.NoError(t, bobSession.Handle(updateMsg))
	require.NoError(t, aliceSession.Handle(updateMsg))

	removeMsg, err := aliceSession.Remove(1, leafSecret(0x03))
	require.NoError(t, err)
	require.NoError(t, aliceSession.Handle(removeMsg))

	// Bob's leaf is blank in the Remove's copath resolutions, so there is
	// no ciphertext he can decrypt to recover the new epoch's secret.
	require.Error(t, bobSession.Handle(removeMsg))

	// Alice can still protect in the new epoch; Bob, left behind, cannot
	// unprotect it.
	ct, err := aliceSession.Protect([]byte("still here"))
	require.NoError(t, err)
	_, err = bobSession.Unprotect(ct)
	require.Error(t, err)
}

// TestFiveMemberGroupLifecycle grows a group to five members one Add at a
// time, has every member refresh its own leaf in turn, and finally removes
// member 4 -- exercising the deep-tree Encap/Decap paths a two-member
// group never reaches.
func TestFiveMemberGroupLifecycle(t *testing.T) {
	suite := testSuite()
	creds := make([]credential.Credential, 5)
	ciks := make([]credential.ClientInitKey, 5)
	sessions := make([]*Session, 5)

	creds[0] = testCred(t, "member-0")
	s0, err := Start([]byte("group"), suite, leafSecret(0x01), creds[0])
	require.NoError(t, err)
	sessions[0] = s0

	for i := 1; i < 5; i++ {
		creds[i] = testCred(t, fmt.Sprintf("member-%d", i))
		ciks[i] = testCIK(t, creds[i], suite, byte(0x40+i))

		welcome, addMsg, err := sessions[0].Add(ciks[i])
		require.NoError(t, err)

		for j := 1; j < i; j++ {
			require.NoError(t, sessions[j].Handle(addMsg))
		}
		require.NoError(t, sessions[0].Handle(addMsg))

		sessions[i], err = Join(welcome, mustUnmarshalPlaintext(t, addMsg), ciks[i], creds[i])
		require.NoError(t, err)
	}

	// Each member in turn refreshes its own leaf; everyone follows.
	for i := 0; i < 5; i++ {
		msg, err := sessions[i].Update(leafSecret(byte(0x20 + i)))
		require.NoError(t, err)
		for j := 0; j < 5; j++ {
			require.NoError(t, sessions[j].Handle(msg))
		}
	}

	// Any member can still reach every other.
	ct, err := sessions[2].Protect([]byte("fan out"))
	require.NoError(t, err)
	for j := 0; j < 5; j++ {
		if j == 2 {
			continue
		}
		pt, err := sessions[j].Unprotect(ct)
		require.NoError(t, err)
		require.Equal(t, "fan out", string(pt))
	}

	// Member 0 removes member 4: survivors keep talking, member 4 cannot
	// follow the group into the new epoch or read anything sent in it.
	removeMsg, err := sessions[0].Remove(4, leafSecret(0x77))
	require.NoError(t, err)
	for j := 0; j < 4; j++ {
		require.NoError(t, sessions[j].Handle(removeMsg))
	}
	require.Error(t, sessions[4].Handle(removeMsg))

	ct, err = sessions[1].Protect([]byte("without you"))
	require.NoError(t, err)
	pt, err := sessions[3].Unprotect(ct)
	require.NoError(t, err)
	require.Equal(t, "without you", string(pt))
	_, err = sessions[4].Unprotect(ct)
	require.Error(t, err)
}

// TestStartWithNegotiationPicksSharedSuite checks the creator path: the
// group comes up on the first suite in the creator's preference order that
// the peer also advertises, and the two members can talk on it.
func TestStartWithNegotiationPicksSharedSuite(t *testing.T) {
	alice := testCred(t, "alice")
	bob := testCred(t, "bob")

	aliceCIK, err := credential.NewClientInitKey(leafSecret(0x0c), alice, []mlscrypto.CipherSuite{
		mlscrypto.X25519_SHA256_AES128GCM, mlscrypto.P256_SHA256_AES128GCM,
	})
	require.NoError(t, err)
	bobCIK, err := credential.NewClientInitKey(leafSecret(0x0d), bob, []mlscrypto.CipherSuite{
		mlscrypto.P256_SHA256_AES128GCM, mlscrypto.X25519_SHA256_AES128GCM,
	})
	require.NoError(t, err)

	aliceSession, welcome, addMsg, err := StartWithNegotiation([]byte("group"), aliceCIK, bobCIK, leafSecret(0x01), alice)
	require.NoError(t, err)
	require.Equal(t, mlscrypto.X25519_SHA256_AES128GCM, welcome.CipherSuite)

	bobSession, err := Join(welcome, mustUnmarshalPlaintext(t, addMsg), bobCIK, bob)
	require.NoError(t, err)
	require.NoError(t, aliceSession.Handle(addMsg))

	ct, err := aliceSession.Protect([]byte("negotiated"))
	require.NoError(t, err)
	pt, err := bobSession.Unprotect(ct)
	require.NoError(t, err)
	require.Equal(t, "negotiated", string(pt))
}

// TestSessionEncryptHandshakeRoundTrips exercises the unlinkable handshake
// delivery path, where handshake messages are wrapped as MLSCiphertext
// rather than sent in the clear.
func TestSessionEncryptHandshakeRoundTrips(t *testing.T) {
	suite := testSuite()
	alice := testCred(t, "alice")
	bob := testCred(t, "bob")
	bobCIK := testCIK(t, bob, suite, 0x0b)

	aliceSession, err := Start([]byte("group"), suite, leafSecret(0x01), alice)
	require.NoError(t, err)

	// The founding Add must travel unencrypted (a joiner has no key
	// material yet to decrypt an MLSCiphertext with).
	welcome, addMsg, err := aliceSession.Add(bobCIK)
	require.NoError(t, err)
	bobSession, err := Join(welcome, mustUnmarshalPlaintext(t, addMsg), bobCIK, bob)
	require.NoError(t, err)
	require.NoError(t, aliceSession.Handle(addMsg))

	aliceSession.EncryptHandshake(true)
	bobSession.EncryptHandshake(true)

	updateMsg, err := aliceSession.Update(leafSecret(0x02))
	require.NoError(t, err)
	require.NoError(t, bobSession.Handle(updateMsg))
}

package message

import (
	"testing"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/keyschedule"
	"github.com/sylph01/mlspp/treemath"
	"github.com/stretchr/testify/require"
)

func TestPaddedContentRoundTrip(t *testing.T) {
	content := []byte("hello group")
	sig := []byte("a-signature")

	encoded := encodePadded(content, sig, 64)
	require.GreaterOrEqual(t, len(encoded), 64)

	gotContent, gotSig, err := decodePadded(encoded)
	require.NoError(t, err)
	require.Equal(t, content, gotContent)
	require.Equal(t, sig, gotSig)
}

func TestPaddedContentNoPadding(t *testing.T) {
	content := []byte("x")
	sig := []byte("yy")

	encoded := encodePadded(content, sig, 0)
	gotContent, gotSig, err := decodePadded(encoded)
	require.NoError(t, err)
	require.Equal(t, content, gotContent)
	require.Equal(t, sig, gotSig)
}

func TestPaddedContentMalformedMarker(t *testing.T) {
	_, _, err := decodePadded([]byte{0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestPaddedContentOversizeSigLen(t *testing.T) {
	// sig_len says 200 bytes of signature but the buffer holds far less.
	data := []byte{0x00, 200, 0x01}
	_, _, err := decodePadded(data)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestPlaintextSignVerify(t *testing.T) {
	priv, err := mlscrypto.GenerateSignatureKeyPair(mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	pt := &MLSPlaintext{
		GroupID:     []byte("group"),
		Epoch:       3,
		Sender:      Sender{Type: SenderTypeMember, Leaf: 1},
		ContentType: ContentTypeApplication,
		Body:        []byte("payload"),
	}

	require.NoError(t, pt.Sign(priv))
	require.True(t, pt.Verify(priv.Public))

	pt.Body = []byte("tampered")
	require.False(t, pt.Verify(priv.Public))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	priv, err := mlscrypto.GenerateSignatureKeyPair(mlscrypto.Ed25519Scheme)
	require.NoError(t, err)

	applicationSecret := make([]byte, suite.Constants().SecretSize)
	for i := range applicationSecret {
		applicationSecret[i] = byte(i)
	}
	senderChain := keyschedule.NewApplicationKeyChain(suite, applicationSecret)
	receiverChain := keyschedule.NewApplicationKeyChain(suite, applicationSecret)
	senderDataKey := DeriveSenderDataKey(suite, applicationSecret)

	pt := &MLSPlaintext{
		GroupID:     []byte("group"),
		Epoch:       0,
		Sender:      Sender{Type: SenderTypeMember, Leaf: 2},
		ContentType: ContentTypeApplication,
		Body:        []byte("hi"),
	}
	require.NoError(t, pt.Sign(priv))

	ct, err := Encrypt(suite, senderChain, senderDataKey, treemath.LeafIndex(2), pt, 0)
	require.NoError(t, err)

	got, err := Decrypt(suite, receiverChain, senderDataKey, pt.GroupID, pt.Epoch, ct)
	require.NoError(t, err)
	require.Equal(t, pt.Body, got.Body)
	require.Equal(t, uint32(2), got.Sender.Leaf)
	require.True(t, got.Verify(priv.Public))
}

func TestDecryptWrongEpochRejected(t *testing.T) {
	suite := mlscrypto.X25519_SHA256_AES128GCM
	applicationSecret := make([]byte, suite.Constants().SecretSize)
	chain := keyschedule.NewApplicationKeyChain(suite, applicationSecret)
	senderDataKey := DeriveSenderDataKey(suite, applicationSecret)

	ct := &MLSCiphertext{GroupID: []byte("group"), Epoch: 5}
	_, err := Decrypt(suite, chain, senderDataKey, []byte("group"), 6, ct)
	require.ErrorIs(t, err, ErrWrongEpoch)
}

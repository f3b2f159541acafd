package message

import (
	"crypto/rand"
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	mlssyntax "github.com/sylph01/mlspp/syntax"
	"github.com/sylph01/mlspp/keyschedule"
	"github.com/sylph01/mlspp/treemath"
)

// MLSCiphertext is an MLSPlaintext's AEAD-protected wire form. The AEAD
// additional data is the TLS encoding of {group_id, epoch, content_type},
// used for both the sender-data seal and the content seal.
type MLSCiphertext struct {
	GroupID             []byte `tls:"head=1"`
	Epoch               uint64
	ContentType         ContentType
	SenderDataNonce     []byte `tls:"head=1"`
	EncryptedSenderData []byte `tls:"head=4"`
	Ciphertext          []byte `tls:"head=4"`
}

type senderData struct {
	Sender     uint32
	Generation uint32
	ReuseGuard [4]byte
}

type aadInput struct {
	GroupID     []byte `tls:"head=1"`
	Epoch       uint64
	ContentType ContentType
}

func buildAAD(groupID []byte, epoch uint64, contentType ContentType) []byte {
	enc, err := mlssyntax.Marshal(aadInput{GroupID: groupID, Epoch: epoch, ContentType: contentType})
	if err != nil {
		panic(fmt.Errorf("message: marshaling additional data: %w", err))
	}
	return enc
}

// DeriveSenderDataKey computes the fixed per-epoch key used to encrypt
// every message's sender-data field, from the epoch's application_secret.
//
// Only a key is derived here, not a nonce: the sender-data nonce travels
// on the wire and is freshly random per message (see Encrypt), since a
// value HKDF-derived once per epoch and then reused across every message
// sealed under the same fixed key would violate AEAD nonce uniqueness.
func DeriveSenderDataKey(suite mlscrypto.CipherSuite, applicationSecret []byte) []byte {
	return suite.HkdfExpandLabel(applicationSecret, "sender data key", []byte{}, suite.Constants().KeySize)
}

func applyGuard(nonce []byte, guard [4]byte) []byte {
	out := make([]byte, len(nonce))
	copy(out, nonce)
	for i := range guard {
		out[i] ^= guard[i]
	}
	return out
}

// Encrypt seals pt (already signed) into an MLSCiphertext. leaf is the
// sender's own leaf index, used to advance its slot in chain. padTo is
// passed through to encodePadded.
func Encrypt(suite mlscrypto.CipherSuite, chain *keyschedule.ApplicationKeyChain,
	senderDataKey []byte, leaf treemath.LeafIndex, pt *MLSPlaintext, padTo int) (*MLSCiphertext, error) {

	generation, keys := chain.Next(leaf)

	var guard [4]byte
	if _, err := rand.Read(guard[:]); err != nil {
		return nil, fmt.Errorf("message: generating reuse guard: %w", err)
	}

	sdEnc, err := mlssyntax.Marshal(senderData{Sender: uint32(leaf), Generation: generation, ReuseGuard: guard})
	if err != nil {
		return nil, fmt.Errorf("message: marshaling sender data: %w", err)
	}

	senderDataNonce := make([]byte, suite.Constants().NonceSize)
	if _, err := rand.Read(senderDataNonce); err != nil {
		return nil, fmt.Errorf("message: generating sender data nonce: %w", err)
	}

	sdAAD := buildAAD(pt.GroupID, pt.Epoch, pt.ContentType)
	encSenderData, err := suite.Seal(senderDataKey, senderDataNonce, sdEnc, sdAAD)
	if err != nil {
		return nil, fmt.Errorf("message: sealing sender data: %w", err)
	}

	content, err := pt.content()
	if err != nil {
		return nil, err
	}
	payload := encodePadded(content, pt.Signature, padTo)

	contentAAD := buildAAD(pt.GroupID, pt.Epoch, pt.ContentType)
	ciphertext, err := suite.Seal(keys.Key, applyGuard(keys.Nonce, guard), payload, contentAAD)
	if err != nil {
		return nil, fmt.Errorf("message: sealing content: %w", err)
	}

	return &MLSCiphertext{
		GroupID:             pt.GroupID,
		Epoch:               pt.Epoch,
		ContentType:         pt.ContentType,
		SenderDataNonce:     senderDataNonce,
		EncryptedSenderData: encSenderData,
		Ciphertext:          ciphertext,
	}, nil
}

// Decrypt opens ct back into an MLSPlaintext. It does not verify the
// plaintext's signature -- the caller must look up the sender's current
// credential (which requires tree state this package doesn't have) and
// call pt.Verify itself.
func Decrypt(suite mlscrypto.CipherSuite, chain *keyschedule.ApplicationKeyChain,
	senderDataKey []byte, groupID []byte, epoch uint64, ct *MLSCiphertext) (*MLSPlaintext, error) {

	if string(ct.GroupID) != string(groupID) || ct.Epoch != epoch {
		return nil, ErrWrongEpoch
	}

	sdAAD := buildAAD(ct.GroupID, ct.Epoch, ct.ContentType)
	sd, err := suite.Open(senderDataKey, ct.SenderDataNonce, ct.EncryptedSenderData, sdAAD)
	if err != nil {
		return nil, fmt.Errorf("message: opening sender data: %w", err)
	}

	var sender senderData
	if _, err := mlssyntax.Unmarshal(sd, &sender); err != nil {
		return nil, fmt.Errorf("message: unmarshaling sender data: %w", err)
	}

	leaf := treemath.LeafIndex(sender.Sender)
	keys, err := chain.Get(leaf, sender.Generation)
	if err != nil {
		return nil, fmt.Errorf("message: fetching application keys: %w", err)
	}

	contentAAD := buildAAD(ct.GroupID, ct.Epoch, ct.ContentType)
	payload, err := suite.Open(keys.Key, applyGuard(keys.Nonce, sender.ReuseGuard), ct.Ciphertext, contentAAD)
	if err != nil {
		return nil, fmt.Errorf("message: opening content: %w", err)
	}
	chain.Erase(leaf, sender.Generation)

	content, signature, err := decodePadded(payload)
	if err != nil {
		return nil, err
	}

	c, err := fromContent(content)
	if err != nil {
		return nil, err
	}

	return &MLSPlaintext{
		GroupID:      ct.GroupID,
		Epoch:        ct.Epoch,
		Sender:       Sender{Type: SenderTypeMember, Leaf: sender.Sender},
		ContentType:  c.ContentType,
		Body:         c.Body,
		Confirmation: c.Confirmation,
		Signature:    signature,
	}, nil
}

package mls

import (
	"fmt"

	mlscrypto "github.com/sylph01/mlspp/crypto"
	"github.com/sylph01/mlspp/ratchettree"
	mlssyntax "github.com/sylph01/mlspp/syntax"
)

// GroupInfo is the pre-Add group state an adder signs and seals for a new
// joiner. It carries everything the joiner needs to bootstrap a State at
// the group's current epoch -- including InitSecret, the one piece of key
// material that never otherwise leaves a member's memory -- so the joiner
// can independently walk the same Add transition every existing member
// applies and arrive at an identical next-epoch State.
type GroupInfo struct {
	GroupID                 []byte `tls:"head=1"`
	Epoch                   uint64
	Tree                    ratchettree.RatchetTree
	ConfirmedTranscriptHash []byte `tls:"head=1"`
	InterimTranscriptHash   []byte `tls:"head=1"`
	InitSecret              []byte `tls:"head=1"`
	SignerIndex             uint32
	Signature               []byte `tls:"head=2"`
}

type groupInfoTBS struct {
	GroupID                 []byte `tls:"head=1"`
	Epoch                   uint64
	Tree                    ratchettree.RatchetTree
	ConfirmedTranscriptHash []byte `tls:"head=1"`
	InterimTranscriptHash   []byte `tls:"head=1"`
	InitSecret              []byte `tls:"head=1"`
	SignerIndex             uint32
}

func (gi *GroupInfo) tbs() ([]byte, error) {
	return mlssyntax.Marshal(groupInfoTBS{
		GroupID:                 gi.GroupID,
		Epoch:                   gi.Epoch,
		Tree:                    gi.Tree,
		ConfirmedTranscriptHash: gi.ConfirmedTranscriptHash,
		InterimTranscriptHash:   gi.InterimTranscriptHash,
		InitSecret:              gi.InitSecret,
		SignerIndex:             gi.SignerIndex,
	})
}

// Sign computes and installs gi.Signature over gi's to_be_signed input.
func (gi *GroupInfo) Sign(priv interface{ Sign([]byte) ([]byte, error) }) error {
	tbs, err := gi.tbs()
	if err != nil {
		return fmt.Errorf("mls: marshaling GroupInfo signing input: %w", err)
	}
	sig, err := priv.Sign(tbs)
	if err != nil {
		return fmt.Errorf("mls: signing GroupInfo: %w", err)
	}
	gi.Signature = sig
	return nil
}

// Verify checks gi.Signature against the signer's public key -- ordinarily
// the adder's credential, read out of gi.Tree at gi.SignerIndex.
func (gi *GroupInfo) Verify(pub mlscrypto.SignaturePublicKey) bool {
	tbs, err := gi.tbs()
	if err != nil {
		return false
	}
	return pub.Verify(tbs, gi.Signature)
}

// Welcome is what an adder sends a new member out of band, addressed by
// ClientInitKeyHash to whichever of the joiner's ClientInitKeys matched the
// group's cipher suite. EncryptedGroupInfo is the GroupInfo sealed with
// HPKE under that ClientInitKey's init public key; only the joiner holding
// the matching private key can open it.
type Welcome struct {
	Version            uint8
	CipherSuite        mlscrypto.CipherSuite
	ClientInitKeyHash  []byte `tls:"head=1"`
	EncryptedGroupInfo mlscrypto.HPKECiphertext
}
